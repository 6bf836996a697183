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

func filterRows(t *testing.T, cond string) []any {
	t.Helper()

	ds := datavet.NewTable(
		datavet.ColumnOf("age", 10, 25, nil, 40),
		datavet.ColumnOf("name", "ann", "bob", "cam", "dee"),
	)
	out, err := ds.Filter(cond, datavet.ParserDatavet)
	require.NoError(t, err)
	col, err := out.Column("name")
	require.NoError(t, err)

	return col.Values()
}

func TestFilterConditions(t *testing.T) {
	tests := []struct {
		cond string
		want []any
	}{
		{"age > 20", []any{"bob", "dee"}},
		{"age >= 25 and age < 40", []any{"bob"}},
		{"age < 20 or age > 30", []any{"ann", "dee"}},
		{"age is null", []any{"cam"}},
		{"age is not null", []any{"ann", "bob", "dee"}},
		{"not age > 20", []any{"ann", "cam"}},
		{`name == "bob"`, []any{"bob"}},
		{"name != 'bob'", []any{"ann", "cam", "dee"}},
		{"(age > 20 and age < 30) or name = 'dee'", []any{"bob", "dee"}},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			assert.Equal(t, tt.want, filterRows(t, tt.cond))
		})
	}
}

func TestFilterNullNeverSatisfiesComparison(t *testing.T) {
	// A null value fails every comparison, so the null row is dropped even by
	// a bound the whole domain satisfies.
	got := filterRows(t, "age <= 100")
	assert.Equal(t, []any{"ann", "bob", "dee"}, got)
}

func TestFilterResetsIndex(t *testing.T) {
	ds := datavet.NewTable(datavet.ColumnOf("v", 10, 20, 30))
	out, err := ds.Filter("v > 10", datavet.ParserDatavet)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, out.Index())
	assert.Equal(t, 2, out.RowCount())
}

func TestFilterErrors(t *testing.T) {
	ds := datavet.NewTable(datavet.ColumnOf("v", 1))

	t.Run("unknown parser", func(t *testing.T) {
		_, err := ds.Filter("v > 0", "sql")
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ds.Filter("missing > 0", datavet.ParserDatavet)
		assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := ds.Filter("v >", datavet.ParserDatavet)
		assert.Error(t, err)
	})

	t.Run("unterminated quote", func(t *testing.T) {
		for _, cond := range []string{"v == '", `v == "`, "v == 'unclosed", `v != "unclosed`} {
			_, err := ds.Filter(cond, datavet.ParserDatavet)
			assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration, cond)
		}
	})
}

func TestParseConditionStringer(t *testing.T) {
	expr, err := datavet.ParseCondition("a > 1 and b is null", datavet.ParserDatavet)
	require.NoError(t, err)
	assert.Equal(t, datavet.OpAnd, expr.Op())
	assert.NotEmpty(t, expr.String())
}

func TestOperationNegate(t *testing.T) {
	tests := []struct {
		op, want datavet.Operation
	}{
		{datavet.OpEQ, datavet.OpNEQ},
		{datavet.OpLT, datavet.OpGTEQ},
		{datavet.OpGTEQ, datavet.OpLT},
		{datavet.OpIsNull, datavet.OpNotNull},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.Negate())
	}

	assert.Panics(t, func() { datavet.OpAnd.Negate() })
}
