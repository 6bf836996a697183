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
	"errors"
	"fmt"
)

// Engine evaluates assertions against loaded datasets. An Engine may carry a
// persisted Suite; evaluations are then recorded into it, and type-routed
// assertions normalize their suite entry after running. Evaluation itself is
// synchronous and stateless; the suite is the only shared mutable state.
type Engine struct {
	registry    *Registry
	suite       *Suite
	sampleBound int

	// activeValidation suppresses suite bookkeeping, used when replaying an
	// already-persisted suite against a batch.
	activeValidation bool
}

type EngineOption func(*Engine)

// WithRegistry uses a registry other than the built-in default.
func WithRegistry(r *Registry) EngineOption { return func(e *Engine) { e.registry = r } }

// WithSuite attaches a persisted suite; evaluated assertions are recorded
// into it.
func WithSuite(s *Suite) EngineOption { return func(e *Engine) { e.suite = s } }

// WithSampleBound overrides the partial evidence sample bound.
func WithSampleBound(n int) EngineOption { return func(e *Engine) { e.sampleBound = n } }

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{registry: defaultRegistry, sampleBound: DefaultSampleBound}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// activeCopy returns an engine evaluating in active-validation mode: results
// are produced but the suite is not rewritten.
func (e *Engine) activeCopy() *Engine {
	cp := *e
	cp.activeValidation = true

	return &cp
}

// Evaluate runs the named assertion against the dataset and returns its
// structured verdict. Configuration errors are fatal for this call only;
// evaluating other assertions against the same dataset is unaffected.
func (e *Engine) Evaluate(kind string, params Params, ds Dataset, level DetailLevel) (*ValidationResult, error) {
	def, ok := e.registry.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown assertion kind %q", ErrInvalidConfiguration, kind)
	}

	ds, err := e.applyRowFilter(ds, params)
	if err != nil {
		return nil, err
	}

	switch def.Arity {
	case ArityColumnMap:
		return e.evalColumnMap(def, ds, params, level)
	case ArityColumnPairMap:
		return e.evalColumnPairMap(def, ds, params, level)
	case ArityMulticolumnMap:
		return e.evalMulticolumnMap(def, ds, params, level)
	case ArityAggregate:
		return e.evalAggregate(def, ds, params, level)
	case ArityTypeRouted:
		return e.evalTypeRouted(def, ds, params, level)
	}

	return nil, fmt.Errorf("%w: definition %q has invalid arity %d", ErrInvalidConfiguration, kind, def.Arity)
}

// applyRowFilter evaluates the optional row condition first, against the
// whole dataset; the reduced view becomes the working dataset for all
// subsequent steps.
func (e *Engine) applyRowFilter(ds Dataset, params Params) (Dataset, error) {
	cond, ok := params.String(ParamRowCondition)
	if !ok || cond == "" {
		return ds, nil
	}

	parser, _ := params.String(ParamConditionParser)

	return ds.Filter(cond, ParserKind(parser))
}

// calcMapSuccess turns (successCount, evaluatedCount, mostly) into the final
// boolean and the success ratio. Zero evaluated rows are vacuously
// successful and yield an undefined ratio.
func calcMapSuccess(successCount, evaluatedCount int, mostly *float64) (bool, *float64) {
	if evaluatedCount == 0 {
		return true, nil
	}

	ratio := float64(successCount) / float64(evaluatedCount)
	if mostly != nil {
		return ratio >= *mostly, &ratio
	}

	return successCount == evaluatedCount, &ratio
}

// asEvalError classifies a predicate error: taxonomy errors pass through
// untouched, anything else means the assertion itself is unusable.
func asEvalError(err error) error {
	if errors.Is(err, ErrInvalidConfiguration) || errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrEvidenceRendering) || errors.Is(err, ErrPredicateFailure) {
		return err
	}

	return fmt.Errorf("%w: %s", ErrPredicateFailure, err)
}

func (e *Engine) record(kind string, columns []string, params Params, level DetailLevel) {
	if e.suite == nil || e.activeValidation {
		return
	}
	e.suite.Append(&AssertionConfig{
		Kind:        kind,
		Columns:     columns,
		Params:      params,
		DetailLevel: level.String(),
	})
}

func singleColumn(params Params) (string, error) {
	name, ok := params.String(ParamColumn)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: missing %q parameter", ErrInvalidConfiguration, ParamColumn)
	}

	return name, nil
}

func (e *Engine) evalColumnMap(def Definition, ds Dataset, params Params, level DetailLevel) (*ValidationResult, error) {
	colName, err := singleColumn(params)
	if err != nil {
		return nil, err
	}
	col, err := ds.Column(colName)
	if err != nil {
		return nil, err
	}
	mostly, err := params.Mostly()
	if err != nil {
		return nil, err
	}

	part := partitionSingle(col, def.EvaluatesNulls)
	values := col.Values()
	index := ds.Index()

	evalVals := make([]any, len(part.evalIdx))
	evalIdx := make([]int, len(part.evalIdx))
	for i, row := range part.evalIdx {
		evalVals[i] = values[row]
		evalIdx[i] = index[row]
	}

	passed, err := def.Map(evalVals, params)
	if err != nil {
		return nil, asEvalError(err)
	}
	if len(passed) != len(evalVals) {
		return nil, fmt.Errorf("%w: predicate %q returned %d booleans for %d values",
			ErrPredicateFailure, def.Kind, len(passed), len(evalVals))
	}

	var (
		successCount  int
		unexpected    []any
		unexpectedIdx []int
	)
	for i, ok := range passed {
		if ok {
			successCount++

			continue
		}
		unexpected = append(unexpected, evalVals[i])
		unexpectedIdx = append(unexpectedIdx, evalIdx[i])
	}

	if layout, ok := params.String(ParamOutputTimeFormat); ok && layout != "" {
		unexpected, err = renderTemporalEvidence(unexpected, layout)
		if err != nil {
			return nil, err
		}
	}

	success, _ := calcMapSuccess(successCount, part.evaluatedCount(), mostly)
	res := formatMapResult(level, e.sampleBound, success,
		part.elementCount, part.elementCount-part.missingCount,
		unexpected, unexpectedIdx, def.EvaluatesNulls)

	e.record(def.Kind, []string{colName}, params, level)

	return res, nil
}

// renderTemporalEvidence re-renders each unexpected scalar in the requested
// layout, parsing strings to timestamps first. Parse failures are assertion
// evaluation errors, not values to drop: partial evidence is a correctness
// relevant output.
func renderTemporalEvidence(unexpected []any, layout string) ([]any, error) {
	out := make([]any, len(unexpected))
	for i, v := range unexpected {
		if v == nil {
			out[i] = nil

			continue
		}
		t, err := asTime(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrEvidenceRendering, err)
		}
		out[i] = t.Format(layout)
	}

	return out, nil
}

func (e *Engine) evalColumnPairMap(def Definition, ds Dataset, params Params, level DetailLevel) (*ValidationResult, error) {
	nameA, okA := params.String(ParamColumnA)
	nameB, okB := params.String(ParamColumnB)
	if !okA || !okB || nameA == "" || nameB == "" {
		return nil, fmt.Errorf("%w: column-pair assertion requires %q and %q",
			ErrInvalidConfiguration, ParamColumnA, ParamColumnB)
	}
	colA, err := ds.Column(nameA)
	if err != nil {
		return nil, err
	}
	colB, err := ds.Column(nameB)
	if err != nil {
		return nil, err
	}
	mostly, err := params.Mostly()
	if err != nil {
		return nil, err
	}

	policy := params.IgnoreRowIf(def.DefaultIgnoreRowIf)
	if policy == "" {
		policy = IgnoreBothMissing
	}
	part, err := partitionPair(colA, colB, policy)
	if err != nil {
		return nil, err
	}

	valuesA, valuesB := colA.Values(), colB.Values()
	index := ds.Index()

	evalA := make([]any, len(part.evalIdx))
	evalB := make([]any, len(part.evalIdx))
	evalIdx := make([]int, len(part.evalIdx))
	for i, row := range part.evalIdx {
		evalA[i] = valuesA[row]
		evalB[i] = valuesB[row]
		evalIdx[i] = index[row]
	}

	passed, err := def.Pair(evalA, evalB, params)
	if err != nil {
		return nil, asEvalError(err)
	}
	if len(passed) != len(evalA) {
		return nil, fmt.Errorf("%w: predicate %q returned %d booleans for %d pairs",
			ErrPredicateFailure, def.Kind, len(passed), len(evalA))
	}

	var (
		successCount  int
		unexpected    []any
		unexpectedIdx []int
	)
	for i, ok := range passed {
		if ok {
			successCount++

			continue
		}
		unexpected = append(unexpected, []any{evalA[i], evalB[i]})
		unexpectedIdx = append(unexpectedIdx, evalIdx[i])
	}

	success, _ := calcMapSuccess(successCount, part.evaluatedCount(), mostly)
	res := formatMapResult(level, e.sampleBound, success,
		part.elementCount, part.elementCount-part.missingCount,
		unexpected, unexpectedIdx, false)

	e.record(def.Kind, []string{nameA, nameB}, params, level)

	return res, nil
}

func (e *Engine) evalMulticolumnMap(def Definition, ds Dataset, params Params, level DetailLevel) (*ValidationResult, error) {
	names, ok := params.Strings(ParamColumnList)
	if !ok || len(names) == 0 {
		return nil, fmt.Errorf("%w: multicolumn assertion requires %q",
			ErrInvalidConfiguration, ParamColumnList)
	}
	cols := make([]Column, len(names))
	var err error
	for i, n := range names {
		if cols[i], err = ds.Column(n); err != nil {
			return nil, err
		}
	}
	mostly, err := params.Mostly()
	if err != nil {
		return nil, err
	}

	policy := params.IgnoreRowIf(def.DefaultIgnoreRowIf)
	if policy == "" {
		policy = IgnoreAllMissing
	}
	part, err := partitionMulti(cols, policy)
	if err != nil {
		return nil, err
	}

	index := ds.Index()
	rows := make([]map[string]any, len(part.evalIdx))
	evalIdx := make([]int, len(part.evalIdx))
	for i, row := range part.evalIdx {
		record := make(map[string]any, len(cols))
		for j, c := range cols {
			record[names[j]] = c.Values()[row]
		}
		rows[i] = record
		evalIdx[i] = index[row]
	}

	passed, err := def.Multi(rows, names, params)
	if err != nil {
		return nil, asEvalError(err)
	}
	if len(passed) != len(rows) {
		return nil, fmt.Errorf("%w: predicate %q returned %d booleans for %d rows",
			ErrPredicateFailure, def.Kind, len(passed), len(rows))
	}

	var (
		successCount  int
		unexpected    []any
		unexpectedIdx []int
	)
	for i, ok := range passed {
		if ok {
			successCount++

			continue
		}
		// Multicolumn evidence is the full row, not a single scalar.
		unexpected = append(unexpected, rows[i])
		unexpectedIdx = append(unexpectedIdx, evalIdx[i])
	}

	success, _ := calcMapSuccess(successCount, part.evaluatedCount(), mostly)
	res := formatMapResult(level, e.sampleBound, success,
		part.elementCount, part.elementCount-part.missingCount,
		unexpected, unexpectedIdx, false)

	e.record(def.Kind, names, params, level)

	return res, nil
}

func (e *Engine) evalAggregate(def Definition, ds Dataset, params Params, level DetailLevel) (*ValidationResult, error) {
	colName, err := singleColumn(params)
	if err != nil {
		return nil, err
	}
	col, err := ds.Column(colName)
	if err != nil {
		return nil, err
	}
	if _, ok := params[ParamMostly]; ok {
		return nil, fmt.Errorf("%w: mostly is not supported for aggregate assertion %q",
			ErrInvalidConfiguration, def.Kind)
	}

	part := partitionSingle(col, false)
	values := col.Values()
	evalVals := make([]any, len(part.evalIdx))
	for i, row := range part.evalIdx {
		evalVals[i] = values[row]
	}

	out, err := def.Aggregate(evalVals, params)
	if err != nil {
		return nil, asEvalError(err)
	}

	res := e.formatAggregate(out, part, level)
	e.record(def.Kind, []string{colName}, params, level)

	return res, nil
}

// formatAggregate builds the aggregate-style result: the evidence sampler is
// bypassed and the payload is the observed statistic plus a check-specific
// details map.
func (e *Engine) formatAggregate(out *AggregateOutcome, part partition, level DetailLevel) *ValidationResult {
	if level == DetailDefault {
		level = DetailSummary
	}

	res := &ValidationResult{Success: out.Success}
	if level == DetailBooleanOnly {
		return res
	}

	res.ObservedValue = out.ObservedValue
	res.ElementCount = intPtr(part.elementCount)
	res.MissingCount = intPtr(part.missingCount)
	if part.elementCount > 0 {
		res.MissingPercent = floatPtr(float64(part.missingCount) / float64(part.elementCount))
	}
	if level >= DetailSummary {
		res.Details = out.Details
	}

	return res
}
