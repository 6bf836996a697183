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
	"strings"
)

// The type-check assertions fork between aggregate and map semantics at
// evaluation time. A column with a closed declared type can be checked
// against the requested type set directly with no per-value scan; an open
// typed column must be scanned value by value. Either way the suite must end
// up holding exactly one entry under the public kind.
const (
	KindValuesOfType     = "values-of-type"
	KindValuesInTypeList = "values-in-type-list"

	// ParamType and ParamTypeList carry the requested type constraint.
	ParamType     = "type"
	ParamTypeList = "type_list"
)

const (
	routedAggregateSuffix = "--aggregate"
	routedMapSuffix       = "--map"
)

// routedKind builds the internal name an executed path is recorded under
// before normalization relabels it back to the public kind.
func routedKind(publicKind, suffix string) string {
	return "_" + publicKind + suffix
}

// IsRoutedKind reports whether a kind name is an internal routed name, which
// must never survive in a normalized suite.
func IsRoutedKind(kind string) bool {
	return strings.HasPrefix(kind, "_") &&
		(strings.HasSuffix(kind, routedAggregateSuffix) || strings.HasSuffix(kind, routedMapSuffix))
}

func init() {
	Register(Definition{
		Kind:  KindValuesOfType,
		Arity: ArityTypeRouted,
		Route: routeTypeCheck(KindValuesOfType, func(params Params) ([]string, bool) {
			name, ok := params.String(ParamType)
			if !ok || name == "" {
				return nil, true
			}
			switch strings.ToLower(name) {
			case "open", "object", "any":
				return nil, true
			}

			return []string{name}, false
		}),
	})
	Register(Definition{
		Kind:  KindValuesInTypeList,
		Arity: ArityTypeRouted,
		Route: routeTypeCheck(KindValuesInTypeList, func(params Params) ([]string, bool) {
			if _, present := params[ParamTypeList]; !present || params[ParamTypeList] == nil {
				return nil, true
			}
			names, _ := params.Strings(ParamTypeList)

			return names, false
		}),
	})
}

// routeTypeCheck builds the TypeRouter for a type-check kind. typeNames
// extracts the requested constraint from the params and reports whether it is
// absent or degenerate.
func routeTypeCheck(publicKind string, typeNames func(Params) ([]string, bool)) TypeRouter {
	return func(e *Engine, ds Dataset, params Params, level DetailLevel) (*ValidationResult, string, error) {
		colName, err := singleColumn(params)
		if err != nil {
			return nil, "", err
		}
		col, err := ds.Column(colName)
		if err != nil {
			return nil, "", err
		}

		names, degenerate := typeNames(params)

		// Closed declared type, or nothing concrete requested: the declared
		// type answers the question without a per-value scan.
		if !col.DeclaredType().IsOpen() || degenerate {
			routed := routedKind(publicKind, routedAggregateSuffix)
			res, err := evalTypeAggregate(e, col, names, degenerate, params, level)
			if err != nil {
				return nil, "", err
			}
			e.record(routed, []string{colName}, params, level)

			return res, routed, nil
		}

		routed := routedKind(publicKind, routedMapSuffix)
		kinds, err := resolveKindSet(names)
		if err != nil {
			return nil, "", err
		}
		synthetic := Definition{
			Kind:  routed,
			Arity: ArityColumnMap,
			Map: func(values []any, _ Params) ([]bool, error) {
				out := make([]bool, len(values))
				for i, v := range values {
					out[i] = kinds[KindOf(v)]
				}

				return out, nil
			},
		}

		// evalColumnMap records the internal routed entry itself.
		res, err := e.evalColumnMap(synthetic, ds, params, level)
		if err != nil {
			return nil, "", err
		}

		return res, routed, nil
	}
}

// evalTypeAggregate compares the declared type against the requested type set
// directly and reports the declared type name as the observed value.
func evalTypeAggregate(e *Engine, col Column, names []string, degenerate bool, params Params, level DetailLevel) (*ValidationResult, error) {
	if _, ok := params[ParamMostly]; ok {
		return nil, fmt.Errorf("%w: mostly is not supported for a column with a closed declared type",
			ErrInvalidConfiguration)
	}

	success := true
	if !degenerate {
		kinds, err := resolveKindSet(names)
		if err != nil {
			return nil, err
		}
		success = kinds[col.DeclaredType().Kind()]
	}

	part := partitionSingle(col, false)
	out := &AggregateOutcome{
		Success:       success,
		ObservedValue: col.DeclaredType().String(),
	}

	return e.formatAggregate(out, part, level), nil
}

// evalTypeRouted executes the routed path and then reconciles the persisted
// suite record: the internal routed-name entry is relabeled back to the
// public kind after removing any pre-existing entry for the public identity.
func (e *Engine) evalTypeRouted(def Definition, ds Dataset, params Params, level DetailLevel) (*ValidationResult, error) {
	if def.Route == nil {
		return nil, fmt.Errorf("%w: type-routed definition %q has no router",
			ErrInvalidConfiguration, def.Kind)
	}

	res, routed, err := def.Route(e, ds, params, level)
	if err != nil {
		return nil, err
	}

	// One-off evaluations skip the bookkeeping entirely.
	if e.suite != nil && !e.activeValidation {
		colName, err := singleColumn(params)
		if err != nil {
			return nil, err
		}
		e.suite.normalizeRouted(def.Kind, routed, []string{colName})
	}

	return res, nil
}
