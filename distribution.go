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

package datavet

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution-test assertion kinds and their parameter keys.
const (
	KindKSTest             = "distribution-ks-test"
	KindBootstrappedKSTest = "distribution-bootstrapped-ks-test"

	ParamDistribution        = "distribution"
	ParamPValue              = "p_value"
	ParamDistParams          = "params"
	ParamPartitionObject     = "partition_object"
	ParamBootstrapSamples    = "bootstrap_samples"
	ParamBootstrapSampleSize = "bootstrap_sample_size"
	ParamSeed                = "seed"
)

func init() {
	Register(Definition{Kind: KindKSTest, Arity: ArityAggregate, Aggregate: ksTestAggregate})
	Register(Definition{Kind: KindBootstrappedKSTest, Arity: ArityAggregate, Aggregate: bootstrappedKSAggregate})
}

func numericSample(values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: distribution tests require numeric values, got %T", ErrTypeMismatch, v)
		}
		out[i] = f
	}

	return out, nil
}

func pValueThreshold(params Params) (float64, error) {
	p, ok := params.Float(ParamPValue)
	if !ok {
		return 0.05, nil
	}
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: p_value must be between 0 and 1 exclusive", ErrInvalidConfiguration)
	}

	return p, nil
}

func distParamFloat(raw map[string]any, key string, def float64) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: distribution parameter %q must be numeric", ErrInvalidConfiguration, key)
	}

	return f, nil
}

// theoreticalCDF builds the CDF of the named reference distribution from its
// keyword parameters.
func theoreticalCDF(name string, raw map[string]any) (func(float64) float64, map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	switch name {
	case "normal":
		mean, err := distParamFloat(raw, "mean", 0)
		if err != nil {
			return nil, nil, err
		}
		stdDev, err := distParamFloat(raw, "std_dev", 1)
		if err != nil {
			return nil, nil, err
		}
		if stdDev <= 0 {
			return nil, nil, fmt.Errorf("%w: std_dev must be positive", ErrInvalidConfiguration)
		}
		dist := distuv.Normal{Mu: mean, Sigma: stdDev}

		return dist.CDF, map[string]any{"mean": mean, "std_dev": stdDev}, nil
	case "uniform":
		minV, err := distParamFloat(raw, "min", 0)
		if err != nil {
			return nil, nil, err
		}
		maxV, err := distParamFloat(raw, "max", 1)
		if err != nil {
			return nil, nil, err
		}
		if maxV <= minV {
			return nil, nil, fmt.Errorf("%w: max must be greater than min", ErrInvalidConfiguration)
		}
		dist := distuv.Uniform{Min: minV, Max: maxV}

		return dist.CDF, map[string]any{"min": minV, "max": maxV}, nil
	case "exponential":
		rate, err := distParamFloat(raw, "rate", 1)
		if err != nil {
			return nil, nil, err
		}
		if rate <= 0 {
			return nil, nil, fmt.Errorf("%w: rate must be positive", ErrInvalidConfiguration)
		}
		dist := distuv.Exponential{Rate: rate}

		return dist.CDF, map[string]any{"rate": rate}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported distribution %q", ErrInvalidConfiguration, name)
	}
}

// ksStatistic computes the one-sample Kolmogorov-Smirnov statistic of sample
// against the given CDF. The sample is not modified.
func ksStatistic(sample []float64, cdf func(float64) float64) float64 {
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var d float64
	for i, x := range sorted {
		fx := cdf(x)
		if lo := fx - float64(i)/n; lo > d {
			d = lo
		}
		if hi := float64(i+1)/n - fx; hi > d {
			d = hi
		}
	}

	return d
}

// ksPValue approximates the two-sided p-value of a KS statistic with the
// asymptotic Kolmogorov series.
func ksPValue(d float64, n int) float64 {
	if n == 0 || d <= 0 {
		return 1
	}
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	if lambda < 1e-3 {
		return 1
	}

	var sum float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*lambda*lambda*float64(k)*float64(k))
		sum += term
		sign = -sign
		if math.Abs(term) < 1e-10 {
			break
		}
	}

	p := 2 * sum
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func ksTestAggregate(values []any, params Params) (*AggregateOutcome, error) {
	name, ok := params.String(ParamDistribution)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing %q parameter", ErrInvalidConfiguration, ParamDistribution)
	}
	threshold, err := pValueThreshold(params)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if v, ok := params[ParamDistParams]; ok {
		raw, ok = v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be a mapping of parameter names", ErrInvalidConfiguration, ParamDistParams)
		}
	}
	cdf, normalized, err := theoreticalCDF(name, raw)
	if err != nil {
		return nil, err
	}

	sample, err := numericSample(values)
	if err != nil {
		return nil, err
	}

	d := ksStatistic(sample, cdf)
	pValue := ksPValue(d, len(sample))

	return &AggregateOutcome{
		Success:       pValue >= threshold,
		ObservedValue: pValue,
		Details: map[string]any{
			"expected_params": normalized,
			"ks_statistic":    d,
			"threshold":       threshold,
		},
	}, nil
}

// continuousPartition is a binned description of a continuous distribution:
// len(bins) == len(weights)+1 and weights sum to one.
type continuousPartition struct {
	bins    []float64
	weights []float64
}

func parsePartitionObject(params Params) (*continuousPartition, error) {
	v, ok := params[ParamPartitionObject]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing %q parameter", ErrInvalidConfiguration, ParamPartitionObject)
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a mapping with bins and weights",
			ErrInvalidConfiguration, ParamPartitionObject)
	}
	if _, ok := raw["tail_weights"]; ok {
		return nil, fmt.Errorf("%w: partition objects with tail weights are not supported, endpoints must be finite",
			ErrInvalidConfiguration)
	}

	toFloats := func(key string) ([]float64, error) {
		seq, ok := raw[key].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: partition object is missing %q", ErrInvalidConfiguration, key)
		}
		out := make([]float64, len(seq))
		for i, e := range seq {
			f, ok := asFloat(e)
			if !ok {
				return nil, fmt.Errorf("%w: partition %s must be numeric", ErrInvalidConfiguration, key)
			}
			out[i] = f
		}

		return out, nil
	}

	bins, err := toFloats("bins")
	if err != nil {
		return nil, err
	}
	weights, err := toFloats("weights")
	if err != nil {
		return nil, err
	}

	if len(bins) < 2 || len(bins) != len(weights)+1 {
		return nil, fmt.Errorf("%w: partition requires len(bins) == len(weights)+1 with at least one bin",
			ErrInvalidConfiguration)
	}
	var sum float64
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: partition weights must be non-negative", ErrInvalidConfiguration)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return nil, fmt.Errorf("%w: partition weights must sum to one, got %v", ErrInvalidConfiguration, sum)
	}
	for i, b := range bins {
		if math.IsInf(b, 0) || math.IsNaN(b) {
			return nil, fmt.Errorf("%w: partition bins must be finite", ErrInvalidConfiguration)
		}
		if i > 0 && b <= bins[i-1] {
			return nil, fmt.Errorf("%w: partition bins must be strictly increasing", ErrInvalidConfiguration)
		}
	}

	return &continuousPartition{bins: bins, weights: weights}, nil
}

// cdfValues prepends zero to the cumulative weights so the result aligns with
// the bin edges.
func cdfValues(weights []float64) []float64 {
	out := make([]float64, len(weights)+1)
	for i, w := range weights {
		out[i+1] = out[i] + w
	}

	return out
}

// cdf linearly interpolates the partition's cumulative distribution across its
// bins, clamped to [0, 1] outside the binned range.
func (p *continuousPartition) cdf() func(float64) float64 {
	cum := cdfValues(p.weights)

	return func(x float64) float64 {
		if x <= p.bins[0] {
			return 0
		}
		last := len(p.bins) - 1
		if x >= p.bins[last] {
			return 1
		}
		i := sort.SearchFloat64s(p.bins, x)
		if p.bins[i] == x {
			return cum[i]
		}
		lo, hi := p.bins[i-1], p.bins[i]

		return cum[i-1] + (cum[i]-cum[i-1])*(x-lo)/(hi-lo)
	}
}

// observedWeights histograms the sample over the partition's bins, normalized
// by the full sample size so out-of-range values reduce the in-range mass.
func (p *continuousPartition) observedWeights(sample []float64) []float64 {
	// Histogram buckets are half-open, so values on the top edge are
	// tallied into the last bucket separately.
	top := p.bins[len(p.bins)-1]
	var atTop float64
	inRange := make([]float64, 0, len(sample))
	for _, v := range sample {
		switch {
		case v == top:
			atTop++
		case v >= p.bins[0] && v < top:
			inRange = append(inRange, v)
		}
	}
	sort.Float64s(inRange)

	counts := make([]float64, len(p.weights))
	if len(inRange) > 0 {
		stat.Histogram(counts, p.bins, inRange, nil)
	}
	counts[len(counts)-1] += atTop
	if len(sample) > 0 {
		for i := range counts {
			counts[i] /= float64(len(sample))
		}
	}

	return counts
}

func bootstrappedKSAggregate(values []any, params Params) (*AggregateOutcome, error) {
	part, err := parsePartitionObject(params)
	if err != nil {
		return nil, err
	}
	threshold, err := pValueThreshold(params)
	if err != nil {
		return nil, err
	}

	samples := 1000
	if n, ok := params.Int(ParamBootstrapSamples); ok {
		if n <= 0 {
			return nil, fmt.Errorf("%w: bootstrap_samples must be positive", ErrInvalidConfiguration)
		}
		samples = int(n)
	}
	sampleSize := 2 * len(part.weights)
	if n, ok := params.Int(ParamBootstrapSampleSize); ok {
		if n <= 0 {
			return nil, fmt.Errorf("%w: bootstrap_sample_size must be positive", ErrInvalidConfiguration)
		}
		sampleSize = int(n)
	}

	data, err := numericSample(values)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: bootstrapped test requires a non-empty evaluated sample", ErrInvalidConfiguration)
	}

	src := rand.NewSource(rand.Int63())
	if seed, ok := params.Int(ParamSeed); ok {
		src = rand.NewSource(seed)
	}
	rng := rand.New(src)

	estimated := part.cdf()
	boot := make([]float64, sampleSize)
	hits := 0
	for i := 0; i < samples; i++ {
		for j := range boot {
			boot[j] = data[rng.Intn(len(data))]
		}
		d := ksStatistic(boot, estimated)
		if ksPValue(d, sampleSize) >= threshold {
			hits++
		}
	}
	testResult := float64(1+hits) / float64(samples+1)

	observed := part.observedWeights(data)

	return &AggregateOutcome{
		Success:       testResult > threshold,
		ObservedValue: testResult,
		Details: map[string]any{
			"bootstrap_samples":     samples,
			"bootstrap_sample_size": sampleSize,
			"observed_partition":    map[string]any{"bins": part.bins, "weights": observed},
			"expected_partition":    map[string]any{"bins": part.bins, "weights": part.weights},
			"observed_cdf":          map[string]any{"x": part.bins, "cdf_values": cdfValues(observed)},
			"expected_cdf":          map[string]any{"x": part.bins, "cdf_values": cdfValues(part.weights)},
		},
	}, nil
}
