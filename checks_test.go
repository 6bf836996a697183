// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package datavet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datavet/datavet-go"
)

func evalColumn(t *testing.T, kind string, params datavet.Params, values ...any) *datavet.ValidationResult {
	t.Helper()

	ds := singleColumnTable(t, "v", values...)
	if params == nil {
		params = datavet.Params{}
	}
	params[datavet.ParamColumn] = "v"

	res, err := datavet.NewEngine().Evaluate(kind, params, ds, datavet.DetailComplete)
	require.NoError(t, err)

	return res
}

func TestValuesInSet(t *testing.T) {
	res := evalColumn(t, datavet.KindValuesInSet,
		datavet.Params{datavet.ParamValueSet: []any{1, 2}}, 1, 2, 3, nil)
	assert.False(t, res.Success)
	assert.Equal(t, []any{3}, res.UnexpectedList)

	t.Run("absent set is vacuous", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesInSet, nil, 1, 2, 3)
		assert.True(t, res.Success)
	})

	t.Run("numeric widths collapse", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesInSet,
			datavet.Params{datavet.ParamValueSet: []any{int64(1), 2.0}}, 1, 2)
		assert.True(t, res.Success)
	})
}

func TestValuesNotInSet(t *testing.T) {
	res := evalColumn(t, datavet.KindValuesNotInSet,
		datavet.Params{datavet.ParamValueSet: []any{"b"}}, "a", "b", "c")
	assert.False(t, res.Success)
	assert.Equal(t, []any{"b"}, res.UnexpectedList)
}

func TestValuesBetween(t *testing.T) {
	tests := []struct {
		name       string
		params     datavet.Params
		values     []any
		success    bool
		unexpected []any
	}{
		{
			name:       "inclusive bounds",
			params:     datavet.Params{datavet.ParamMinValue: 1, datavet.ParamMaxValue: 3},
			values:     []any{1, 2, 3, 4},
			unexpected: []any{4},
		},
		{
			name: "strict min excludes boundary",
			params: datavet.Params{
				datavet.ParamMinValue: 1, datavet.ParamMaxValue: 3,
				datavet.ParamStrictMin: true,
			},
			values:     []any{1, 2, 3},
			unexpected: []any{1},
		},
		{
			name: "strict max excludes boundary",
			params: datavet.Params{
				datavet.ParamMinValue: 1, datavet.ParamMaxValue: 3,
				datavet.ParamStrictMax: true,
			},
			values:     []any{1, 2, 3},
			unexpected: []any{3},
		},
		{
			name:    "only min",
			params:  datavet.Params{datavet.ParamMinValue: 0},
			values:  []any{1, 2},
			success: true,
		},
		{
			name: "string bounds",
			params: datavet.Params{
				datavet.ParamMinValue: "apple", datavet.ParamMaxValue: "mango",
			},
			values:     []any{"banana", "zebra"},
			unexpected: []any{"zebra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evalColumn(t, datavet.KindValuesBetween, tt.params, tt.values...)
			assert.Equal(t, tt.success || len(tt.unexpected) == 0, res.Success)
			assert.Equal(t, tt.unexpected, res.UnexpectedList)
		})
	}
}

func TestValuesBetweenConfigErrors(t *testing.T) {
	ds := singleColumnTable(t, "v", 1, 2)
	eng := datavet.NewEngine()

	t.Run("no bounds", func(t *testing.T) {
		_, err := eng.Evaluate(datavet.KindValuesBetween,
			datavet.Params{datavet.ParamColumn: "v"}, ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})

	t.Run("min above max", func(t *testing.T) {
		_, err := eng.Evaluate(datavet.KindValuesBetween,
			datavet.Params{
				datavet.ParamColumn:   "v",
				datavet.ParamMinValue: 10,
				datavet.ParamMaxValue: 1,
			}, ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})
}

func TestValuesBetweenCrossType(t *testing.T) {
	ds := singleColumnTable(t, "v", 1, "two")
	eng := datavet.NewEngine()
	params := datavet.Params{datavet.ParamColumn: "v", datavet.ParamMinValue: 0}

	_, err := eng.Evaluate(datavet.KindValuesBetween, params, ds, datavet.DetailBasic)
	assert.ErrorIs(t, err, datavet.ErrTypeMismatch)

	params[datavet.ParamAllowCrossType] = true
	res, err := eng.Evaluate(datavet.KindValuesBetween, params, ds, datavet.DetailComplete)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []any{"two"}, res.UnexpectedList)
}

func TestValuesBetweenParsedTimes(t *testing.T) {
	res := evalColumn(t, datavet.KindValuesBetween,
		datavet.Params{
			datavet.ParamMinValue:    "2024-01-01",
			datavet.ParamMaxValue:    "2024-12-31",
			datavet.ParamParseAsTime: true,
		},
		"2024-06-15", "2025-02-01")
	assert.False(t, res.Success)
	require.NotNil(t, res.UnexpectedCount)
	assert.Equal(t, 1, *res.UnexpectedCount)
}

func TestValueLengths(t *testing.T) {
	res := evalColumn(t, datavet.KindLengthsBetween,
		datavet.Params{datavet.ParamMinValue: 2, datavet.ParamMaxValue: 3},
		"ab", "abc", "a", "abcd")
	assert.False(t, res.Success)
	assert.Equal(t, []any{"a", "abcd"}, res.UnexpectedList)

	t.Run("bounds must be integers", func(t *testing.T) {
		ds := singleColumnTable(t, "v", "ab")
		_, err := datavet.NewEngine().Evaluate(datavet.KindLengthsBetween,
			datavet.Params{datavet.ParamColumn: "v", datavet.ParamMinValue: 1.5},
			ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})

	t.Run("equal", func(t *testing.T) {
		res := evalColumn(t, datavet.KindLengthsEqual,
			datavet.Params{datavet.ParamValue: 2}, "ab", "cd", "xyz")
		assert.False(t, res.Success)
		assert.Equal(t, []any{"xyz"}, res.UnexpectedList)
	})
}

func TestValuesMatchRegex(t *testing.T) {
	res := evalColumn(t, datavet.KindMatchRegex,
		datavet.Params{datavet.ParamRegex: `^\d+$`}, "123", "45a")
	assert.False(t, res.Success)
	assert.Equal(t, []any{"45a"}, res.UnexpectedList)

	t.Run("negated", func(t *testing.T) {
		res := evalColumn(t, datavet.KindNotMatchRegex,
			datavet.Params{datavet.ParamRegex: `^\d+$`}, "123", "45a")
		assert.False(t, res.Success)
		assert.Equal(t, []any{"123"}, res.UnexpectedList)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		ds := singleColumnTable(t, "v", "x")
		_, err := datavet.NewEngine().Evaluate(datavet.KindMatchRegex,
			datavet.Params{datavet.ParamColumn: "v", datavet.ParamRegex: "("},
			ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})
}

func TestValuesMatchRegexList(t *testing.T) {
	patterns := []any{`^a`, `b$`}

	t.Run("any", func(t *testing.T) {
		res := evalColumn(t, datavet.KindMatchRegexList,
			datavet.Params{datavet.ParamRegexList: patterns}, "ax", "xb", "xx")
		assert.False(t, res.Success)
		assert.Equal(t, []any{"xx"}, res.UnexpectedList)
	})

	t.Run("all", func(t *testing.T) {
		res := evalColumn(t, datavet.KindMatchRegexList,
			datavet.Params{datavet.ParamRegexList: patterns, datavet.ParamMatchOn: "all"},
			"ab", "ax")
		assert.False(t, res.Success)
		assert.Equal(t, []any{"ax"}, res.UnexpectedList)
	})

	t.Run("bad match_on", func(t *testing.T) {
		ds := singleColumnTable(t, "v", "x")
		_, err := datavet.NewEngine().Evaluate(datavet.KindMatchRegexList,
			datavet.Params{
				datavet.ParamColumn:    "v",
				datavet.ParamRegexList: patterns,
				datavet.ParamMatchOn:   "some",
			}, ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})

	t.Run("negated list", func(t *testing.T) {
		res := evalColumn(t, datavet.KindNotMatchRegexList,
			datavet.Params{datavet.ParamRegexList: patterns}, "xx", "ab")
		assert.False(t, res.Success)
		assert.Equal(t, []any{"ab"}, res.UnexpectedList)
	})
}

func TestValuesMatchTimeFormat(t *testing.T) {
	res := evalColumn(t, datavet.KindMatchTimeFormat,
		datavet.Params{datavet.ParamTimeFormat: "2006-01-02"},
		"2024-01-15", "15/01/2024")
	assert.False(t, res.Success)
	assert.Equal(t, []any{"15/01/2024"}, res.UnexpectedList)

	t.Run("non-string values are a type error", func(t *testing.T) {
		ds := singleColumnTable(t, "v", 20240115)
		_, err := datavet.NewEngine().Evaluate(datavet.KindMatchTimeFormat,
			datavet.Params{datavet.ParamColumn: "v", datavet.ParamTimeFormat: "2006-01-02"},
			ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrTypeMismatch)
	})
}

func TestValuesParseableAsTime(t *testing.T) {
	res := evalColumn(t, datavet.KindParseableAsTime, nil,
		"2024-01-15", "2024-01-15T10:00:00Z", "not a date")
	assert.False(t, res.Success)
	assert.Equal(t, []any{"not a date"}, res.UnexpectedList)
}

func TestValuesJSONParseable(t *testing.T) {
	res := evalColumn(t, datavet.KindJSONParseable, nil,
		`{"a": 1}`, `[1, 2]`, `"str"`, `{broken`)
	assert.False(t, res.Success)
	assert.Equal(t, []any{`{broken`}, res.UnexpectedList)
}

func TestValuesIncreasing(t *testing.T) {
	t.Run("weakly increasing", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesIncreasing, nil, 1, 1, 2, 3)
		assert.True(t, res.Success)
	})

	t.Run("strictly", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesIncreasing,
			datavet.Params{datavet.ParamStrictly: true}, 1, 1, 2)
		assert.False(t, res.Success)
		require.NotNil(t, res.UnexpectedCount)
		assert.Equal(t, 1, *res.UnexpectedCount)
	})

	t.Run("first element always passes", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesDecreasing, nil, 5, 4, 4, 1)
		assert.True(t, res.Success)
	})

	t.Run("nulls are skipped, not breaks", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesIncreasing, nil, 1, nil, 2, 3)
		assert.True(t, res.Success)
	})

	t.Run("parsed timestamps", func(t *testing.T) {
		res := evalColumn(t, datavet.KindValuesIncreasing,
			datavet.Params{datavet.ParamParseAsTime: true},
			"2024-01-01", "2024-02-01", "2023-12-01")
		assert.False(t, res.Success)
	})
}

func TestPairAGreaterThanB(t *testing.T) {
	ds := datavet.NewTable(
		datavet.ColumnOf("a", 2, 2, 1, nil),
		datavet.ColumnOf("b", 1, 2, 2, nil),
	)
	eng := datavet.NewEngine()

	res, err := eng.Evaluate(datavet.KindPairAGreaterThanB,
		datavet.Params{datavet.ParamColumnA: "a", datavet.ParamColumnB: "b"},
		ds, datavet.DetailComplete)
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.UnexpectedCount)
	assert.Equal(t, 2, *res.UnexpectedCount, "equal pair fails without or_equal; both-null row is ignored")

	t.Run("or_equal", func(t *testing.T) {
		res, err := eng.Evaluate(datavet.KindPairAGreaterThanB,
			datavet.Params{
				datavet.ParamColumnA: "a",
				datavet.ParamColumnB: "b",
				datavet.ParamOrEqual: true,
			}, ds, datavet.DetailComplete)
		require.NoError(t, err)
		require.NotNil(t, res.UnexpectedCount)
		assert.Equal(t, 1, *res.UnexpectedCount)
	})

	t.Run("cross-type comparisons unsupported", func(t *testing.T) {
		_, err := eng.Evaluate(datavet.KindPairAGreaterThanB,
			datavet.Params{
				datavet.ParamColumnA:        "a",
				datavet.ParamColumnB:        "b",
				datavet.ParamAllowCrossType: true,
			}, ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})
}

func TestPairValuesInSet(t *testing.T) {
	ds := datavet.NewTable(
		datavet.ColumnOf("a", "x", "y"),
		datavet.ColumnOf("b", 1, 2),
	)

	res, err := datavet.NewEngine().Evaluate(datavet.KindPairValuesInSet,
		datavet.Params{
			datavet.ParamColumnA: "a",
			datavet.ParamColumnB: "b",
			datavet.ParamValuePairsSet: []any{
				[]any{"x", 1},
				[]any{"y", 9},
			},
		}, ds, datavet.DetailComplete)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []any{[]any{"y", 2}}, res.UnexpectedList)
}

func TestPairIgnoreRowIfPolicies(t *testing.T) {
	ds := datavet.NewTable(
		datavet.ColumnOf("a", 1, nil, nil),
		datavet.ColumnOf("b", 1, 5, nil),
	)
	eng := datavet.NewEngine()

	tests := []struct {
		policy    string
		evaluated int
	}{
		{"both_values_are_missing", 2},
		{"either_value_is_missing", 1},
		{"never", 3},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			res, err := eng.Evaluate(datavet.KindPairValuesEqual,
				datavet.Params{
					datavet.ParamColumnA:     "a",
					datavet.ParamColumnB:     "b",
					datavet.ParamIgnoreRowIf: tt.policy,
				}, ds, datavet.DetailBasic)
			require.NoError(t, err)
			require.NotNil(t, res.ElementCount)
			require.NotNil(t, res.MissingCount)
			assert.Equal(t, tt.evaluated, *res.ElementCount-*res.MissingCount)
		})
	}

	t.Run("unknown policy", func(t *testing.T) {
		_, err := eng.Evaluate(datavet.KindPairValuesEqual,
			datavet.Params{
				datavet.ParamColumnA:     "a",
				datavet.ParamColumnB:     "b",
				datavet.ParamIgnoreRowIf: "sometimes",
			}, ds, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})
}

func TestMulticolumnUnique(t *testing.T) {
	ds := datavet.NewTable(
		datavet.ColumnOf("a", 1, 1, nil),
		datavet.ColumnOf("b", 2, 1, nil),
		datavet.ColumnOf("c", 3, 2, nil),
	)

	res, err := datavet.NewEngine().Evaluate(datavet.KindMulticolumnUnique,
		datavet.Params{datavet.ParamColumnList: []any{"a", "b", "c"}},
		ds, datavet.DetailComplete)
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.NotNil(t, res.ElementCount)
	assert.Equal(t, 3, *res.ElementCount)
	require.NotNil(t, res.MissingCount)
	assert.Equal(t, 1, *res.MissingCount, "the all-null row is ignored by default")
	require.NotNil(t, res.UnexpectedCount)
	assert.Equal(t, 1, *res.UnexpectedCount)
	assert.Equal(t, []int{1}, res.UnexpectedIndexList)
}
