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
	"maps"
	"slices"
	"sync"
)

// Arity tags the predicate-invocation shape of an assertion kind.
type Arity int

const (
	// ArityColumnMap evaluates one column, one boolean per non-ignored value.
	ArityColumnMap Arity = iota
	// ArityColumnPairMap evaluates two columns pairwise, one boolean per pair.
	ArityColumnPairMap
	// ArityMulticolumnMap evaluates a row-oriented sub-table, one boolean per row.
	ArityMulticolumnMap
	// ArityAggregate computes a single statistic over the evaluated column.
	ArityAggregate
	// ArityTypeRouted decides between aggregate and map semantics at
	// evaluation time based on the column's declared type.
	ArityTypeRouted
)

// MapPredicate receives one column's non-ignored values and returns one
// boolean per value.
type MapPredicate func(values []any, params Params) ([]bool, error)

// PairPredicate receives two equal-length non-ignored value sequences paired
// columnwise and returns one boolean per pair.
type PairPredicate func(a, b []any, params Params) ([]bool, error)

// MultiPredicate receives the non-ignored rows restricted to the target
// columns and returns one boolean per row.
type MultiPredicate func(rows []map[string]any, columns []string, params Params) ([]bool, error)

// AggregateOutcome is what an aggregate predicate produces directly; the
// evidence sampler is bypassed for aggregate checks.
type AggregateOutcome struct {
	Success       bool
	ObservedValue any
	Details       map[string]any
}

// AggregatePredicate computes a statistic over the evaluated column values.
type AggregatePredicate func(values []any, params Params) (*AggregateOutcome, error)

// TypeRouter evaluates a type-routed assertion and reports which internal
// routed kind actually executed, so the suite can be normalized afterwards.
type TypeRouter func(e *Engine, ds Dataset, params Params, level DetailLevel) (*ValidationResult, string, error)

// Definition describes one registered assertion kind: its invocation shape,
// predicate callable, and default policy parameters.
type Definition struct {
	Kind  string
	Arity Arity

	Map       MapPredicate
	Pair      PairPredicate
	Multi     MultiPredicate
	Aggregate AggregatePredicate
	Route     TypeRouter

	// DefaultIgnoreRowIf is applied when the configuration does not set one.
	DefaultIgnoreRowIf IgnoreRowIf
	// EvaluatesNulls marks the null-presence checks: nulls are part of the
	// evaluated population and missing statistics are omitted from results.
	EvaluatesNulls bool
}

// Registry maps assertion-kind identifiers to their definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition, replacing any existing one of the same kind.
// A definition without a kind or predicate is a programmer error and panics.
func (r *Registry) Register(def Definition) {
	if def.Kind == "" {
		panic("datavet: cannot register a definition without a kind")
	}
	if def.Map == nil && def.Pair == nil && def.Multi == nil &&
		def.Aggregate == nil && def.Route == nil {
		panic("datavet: cannot register definition " + def.Kind + " without a predicate")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Kind] = def
}

func (r *Registry) Get(kind string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[kind]

	return def, ok
}

// Kinds returns the sorted registered assertion kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.defs))
}

var defaultRegistry = NewRegistry()

// Register adds an assertion definition to the default registry.
func Register(def Definition) { defaultRegistry.Register(def) }

// DefaultRegistry returns the registry holding the built-in assertion catalog.
func DefaultRegistry() *Registry { return defaultRegistry }
