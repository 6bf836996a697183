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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datavet/datavet-go"
)

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		in   string
		want datavet.DetailLevel
	}{
		{"BOOLEAN_ONLY", datavet.DetailBooleanOnly},
		{"BASIC", datavet.DetailBasic},
		{"SUMMARY", datavet.DetailSummary},
		{"COMPLETE", datavet.DetailComplete},
		{"", datavet.DetailDefault},
		{"bogus", datavet.DetailDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, datavet.ParseDetailLevel(tt.in), "input %q", tt.in)
	}
}

func TestPartialCountsOrdering(t *testing.T) {
	// b appears three times, a twice, c once: counts sort descending, ties
	// break on the rendered value.
	ds := singleColumnTable(t, "v", "b", "a", "b", "c", "a", "b")
	res, err := datavet.NewEngine().Evaluate(datavet.KindValuesInSet,
		datavet.Params{datavet.ParamColumn: "v", datavet.ParamValueSet: []any{"z"}},
		ds, datavet.DetailSummary)
	require.NoError(t, err)

	require.Len(t, res.PartialUnexpectedCounts, 3)
	assert.Equal(t, "b", res.PartialUnexpectedCounts[0].Value)
	assert.Equal(t, 3, res.PartialUnexpectedCounts[0].Count)
	assert.Equal(t, "a", res.PartialUnexpectedCounts[1].Value)
	assert.Equal(t, 2, res.PartialUnexpectedCounts[1].Count)
	assert.Equal(t, "c", res.PartialUnexpectedCounts[2].Value)
	assert.Equal(t, 1, res.PartialUnexpectedCounts[2].Count)
}

func TestResultJSONOmitsUnsetFields(t *testing.T) {
	ds := singleColumnTable(t, "v", 1, 2)
	res, err := datavet.NewEngine().Evaluate(datavet.KindValuesUnique,
		datavet.Params{datavet.ParamColumn: "v"}, ds, datavet.DetailBooleanOnly)
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true}`, string(data))
}

func TestResultJSONFieldNames(t *testing.T) {
	ds := singleColumnTable(t, "v", 1, 1, nil)
	res, err := datavet.NewEngine().Evaluate(datavet.KindValuesUnique,
		datavet.Params{datavet.ParamColumn: "v"}, ds, datavet.DetailSummary)
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{
		"success", "element_count", "missing_count", "missing_percent",
		"unexpected_count", "unexpected_percent", "unexpected_percent_nonmissing",
		"partial_unexpected_list", "partial_unexpected_index_list",
		"partial_unexpected_counts",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "unexpected_list")
	assert.NotContains(t, decoded, "unexpected_index_list")
}
