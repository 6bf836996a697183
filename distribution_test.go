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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datavet/datavet-go"
)

func uniformSample() []any {
	out := make([]any, 0, 19)
	for i := 1; i < 20; i++ {
		out = append(out, float64(i)/20)
	}

	return out
}

func TestKSTestUniformFit(t *testing.T) {
	ds := singleColumnTable(t, "v", uniformSample()...)
	res, err := datavet.NewEngine().Evaluate(datavet.KindKSTest,
		datavet.Params{
			datavet.ParamColumn:       "v",
			datavet.ParamDistribution: "uniform",
			datavet.ParamDistParams:   map[string]any{"min": 0, "max": 1},
		}, ds, datavet.DetailSummary)
	require.NoError(t, err)

	assert.True(t, res.Success)
	observed, ok := res.ObservedValue.(float64)
	require.True(t, ok)
	assert.Greater(t, observed, 0.05)
	require.NotNil(t, res.Details)
	assert.Contains(t, res.Details, "ks_statistic")
	assert.Contains(t, res.Details, "expected_params")
}

func TestKSTestGrossMismatch(t *testing.T) {
	values := make([]any, 0, 20)
	for i := 0; i < 20; i++ {
		values = append(values, 10.0+float64(i))
	}
	ds := singleColumnTable(t, "v", values...)

	res, err := datavet.NewEngine().Evaluate(datavet.KindKSTest,
		datavet.Params{
			datavet.ParamColumn:       "v",
			datavet.ParamDistribution: "normal",
		}, ds, datavet.DetailSummary)
	require.NoError(t, err)

	assert.False(t, res.Success)
	observed, ok := res.ObservedValue.(float64)
	require.True(t, ok)
	assert.Less(t, observed, 1e-6)
}

func TestKSTestConfigErrors(t *testing.T) {
	ds := singleColumnTable(t, "v", 1.0, 2.0)
	eng := datavet.NewEngine()

	tests := []struct {
		name   string
		params datavet.Params
	}{
		{"missing distribution", datavet.Params{datavet.ParamColumn: "v"}},
		{"unsupported distribution", datavet.Params{
			datavet.ParamColumn: "v", datavet.ParamDistribution: "weibull",
		}},
		{"p out of range", datavet.Params{
			datavet.ParamColumn: "v", datavet.ParamDistribution: "normal",
			datavet.ParamPValue: 1.0,
		}},
		{"negative std_dev", datavet.Params{
			datavet.ParamColumn: "v", datavet.ParamDistribution: "normal",
			datavet.ParamDistParams: map[string]any{"std_dev": -1},
		}},
		{"uniform max below min", datavet.Params{
			datavet.ParamColumn: "v", datavet.ParamDistribution: "uniform",
			datavet.ParamDistParams: map[string]any{"min": 2, "max": 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Evaluate(datavet.KindKSTest, tt.params, ds, datavet.DetailBasic)
			assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
		})
	}

	t.Run("non-numeric values", func(t *testing.T) {
		bad := singleColumnTable(t, "v", "a", "b")
		_, err := eng.Evaluate(datavet.KindKSTest,
			datavet.Params{datavet.ParamColumn: "v", datavet.ParamDistribution: "normal"},
			bad, datavet.DetailBasic)
		assert.ErrorIs(t, err, datavet.ErrTypeMismatch)
	})
}

func uniformPartition() map[string]any {
	return map[string]any{
		"bins":    []any{0.0, 1.0, 2.0},
		"weights": []any{0.5, 0.5},
	}
}

func spreadValues(lo, hi float64, n int) []any {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = lo + (hi-lo)*(float64(i)+0.5)/float64(n)
	}

	return out
}

func TestBootstrappedKSTestFit(t *testing.T) {
	ds := singleColumnTable(t, "v", spreadValues(0, 2, 40)...)
	res, err := datavet.NewEngine().Evaluate(datavet.KindBootstrappedKSTest,
		datavet.Params{
			datavet.ParamColumn:           "v",
			datavet.ParamPartitionObject:  uniformPartition(),
			datavet.ParamBootstrapSamples: 100,
			datavet.ParamSeed:             7,
		}, ds, datavet.DetailSummary)
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.Details)
	for _, key := range []string{
		"bootstrap_samples", "bootstrap_sample_size",
		"observed_partition", "expected_partition",
		"observed_cdf", "expected_cdf",
	} {
		assert.Contains(t, res.Details, key)
	}

	observed := res.Details["observed_partition"].(map[string]any)
	weights := observed["weights"].([]float64)
	require.Len(t, weights, 2)
	assert.InDelta(t, 0.5, weights[0], 1e-9)
	assert.InDelta(t, 0.5, weights[1], 1e-9)
}

func TestBootstrappedKSTestMismatch(t *testing.T) {
	// Everything concentrated at the bottom of the first bin.
	values := make([]any, 40)
	for i := range values {
		values[i] = 0.01 + float64(i)*1e-4
	}
	ds := singleColumnTable(t, "v", values...)

	res, err := datavet.NewEngine().Evaluate(datavet.KindBootstrappedKSTest,
		datavet.Params{
			datavet.ParamColumn:              "v",
			datavet.ParamPartitionObject:     uniformPartition(),
			datavet.ParamBootstrapSamples:    100,
			datavet.ParamBootstrapSampleSize: 30,
			datavet.ParamSeed:                7,
		}, ds, datavet.DetailSummary)
	require.NoError(t, err)

	assert.False(t, res.Success)
}

func TestBootstrappedKSTestDeterministicWithSeed(t *testing.T) {
	ds := singleColumnTable(t, "v", spreadValues(0, 2, 40)...)
	params := datavet.Params{
		datavet.ParamColumn:           "v",
		datavet.ParamPartitionObject:  uniformPartition(),
		datavet.ParamBootstrapSamples: 50,
		datavet.ParamSeed:             42,
	}
	eng := datavet.NewEngine()

	first, err := eng.Evaluate(datavet.KindBootstrappedKSTest, params, ds, datavet.DetailSummary)
	require.NoError(t, err)
	second, err := eng.Evaluate(datavet.KindBootstrappedKSTest, params, ds, datavet.DetailSummary)
	require.NoError(t, err)

	assert.Equal(t, first.ObservedValue, second.ObservedValue)
}

func TestBootstrappedKSTestPartitionValidation(t *testing.T) {
	ds := singleColumnTable(t, "v", 0.5, 1.5)
	eng := datavet.NewEngine()

	tests := []struct {
		name      string
		partition map[string]any
	}{
		{"missing partition", nil},
		{"tail weights rejected", map[string]any{
			"bins":         []any{0.0, 1.0},
			"weights":      []any{1.0},
			"tail_weights": []any{0.0, 0.0},
		}},
		{"weights not summing to one", map[string]any{
			"bins":    []any{0.0, 1.0, 2.0},
			"weights": []any{0.5, 0.4},
		}},
		{"bins not increasing", map[string]any{
			"bins":    []any{0.0, 2.0, 1.0},
			"weights": []any{0.5, 0.5},
		}},
		{"infinite endpoint", map[string]any{
			"bins":    []any{math.Inf(-1), 0.0, 1.0},
			"weights": []any{0.5, 0.5},
		}},
		{"length mismatch", map[string]any{
			"bins":    []any{0.0, 1.0},
			"weights": []any{0.5, 0.5},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := datavet.Params{datavet.ParamColumn: "v"}
			if tt.partition != nil {
				params[datavet.ParamPartitionObject] = tt.partition
			}
			_, err := eng.Evaluate(datavet.KindBootstrappedKSTest, params, ds, datavet.DetailBasic)
			assert.ErrorIs(t, err, datavet.ErrInvalidConfiguration)
		})
	}
}
