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
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Built-in assertion kinds. Each registers at init into the default registry;
// the catalog here is representative of each invocation shape rather than
// exhaustive.
const (
	KindValuesUnique    = "values-unique"
	KindValuesNotNull   = "values-not-null"
	KindValuesNull      = "values-null"
	KindValuesInSet     = "values-in-set"
	KindValuesNotInSet  = "values-not-in-set"
	KindValuesBetween   = "values-between"
	KindLengthsBetween  = "value-lengths-between"
	KindLengthsEqual    = "value-lengths-equal"
	KindMatchRegex      = "values-match-regex"
	KindNotMatchRegex   = "values-not-match-regex"
	KindMatchRegexList  = "values-match-regex-list"
	KindNotMatchRegexList = "values-not-match-regex-list"
	KindMatchTimeFormat = "values-match-time-format"
	KindParseableAsTime = "values-parseable-as-time"
	KindJSONParseable   = "values-json-parseable"
	KindValuesIncreasing = "values-increasing"
	KindValuesDecreasing = "values-decreasing"

	KindPairValuesEqual   = "pair-values-equal"
	KindPairAGreaterThanB = "pair-a-greater-than-b"
	KindPairValuesInSet   = "pair-values-in-set"

	KindMulticolumnUnique = "multicolumn-values-unique"
)

// Check-specific parameter keys.
const (
	ParamValueSet         = "value_set"
	ParamValuePairsSet    = "value_pairs_set"
	ParamMinValue         = "min_value"
	ParamMaxValue         = "max_value"
	ParamStrictMin        = "strict_min"
	ParamStrictMax        = "strict_max"
	ParamAllowCrossType   = "allow_cross_type_comparisons"
	ParamParseAsTime      = "parse_strings_as_time"
	ParamRegex            = "regex"
	ParamRegexList        = "regex_list"
	ParamMatchOn          = "match_on"
	ParamTimeFormat       = "time_format"
	ParamValue            = "value"
	ParamOrEqual          = "or_equal"
	ParamStrictly         = "strictly"
)

func init() {
	Register(Definition{Kind: KindValuesUnique, Arity: ArityColumnMap, Map: uniqueValues})
	Register(Definition{Kind: KindValuesNotNull, Arity: ArityColumnMap, Map: notNullValues, EvaluatesNulls: true})
	Register(Definition{Kind: KindValuesNull, Arity: ArityColumnMap, Map: nullValues, EvaluatesNulls: true})
	Register(Definition{Kind: KindValuesInSet, Arity: ArityColumnMap, Map: valuesInSet})
	Register(Definition{Kind: KindValuesNotInSet, Arity: ArityColumnMap, Map: valuesNotInSet})
	Register(Definition{Kind: KindValuesBetween, Arity: ArityColumnMap, Map: valuesBetween})
	Register(Definition{Kind: KindLengthsBetween, Arity: ArityColumnMap, Map: lengthsBetween})
	Register(Definition{Kind: KindLengthsEqual, Arity: ArityColumnMap, Map: lengthsEqual})
	Register(Definition{Kind: KindMatchRegex, Arity: ArityColumnMap, Map: matchRegex(false)})
	Register(Definition{Kind: KindNotMatchRegex, Arity: ArityColumnMap, Map: matchRegex(true)})
	Register(Definition{Kind: KindMatchRegexList, Arity: ArityColumnMap, Map: matchRegexList})
	Register(Definition{Kind: KindNotMatchRegexList, Arity: ArityColumnMap, Map: notMatchRegexList})
	Register(Definition{Kind: KindMatchTimeFormat, Arity: ArityColumnMap, Map: matchTimeFormat})
	Register(Definition{Kind: KindParseableAsTime, Arity: ArityColumnMap, Map: parseableAsTime})
	Register(Definition{Kind: KindJSONParseable, Arity: ArityColumnMap, Map: jsonParseable})
	Register(Definition{Kind: KindValuesIncreasing, Arity: ArityColumnMap, Map: monotonic(1)})
	Register(Definition{Kind: KindValuesDecreasing, Arity: ArityColumnMap, Map: monotonic(-1)})

	Register(Definition{Kind: KindPairValuesEqual, Arity: ArityColumnPairMap,
		Pair: pairEqual, DefaultIgnoreRowIf: IgnoreBothMissing})
	Register(Definition{Kind: KindPairAGreaterThanB, Arity: ArityColumnPairMap,
		Pair: pairAGreaterThanB, DefaultIgnoreRowIf: IgnoreBothMissing})
	Register(Definition{Kind: KindPairValuesInSet, Arity: ArityColumnPairMap,
		Pair: pairInSet, DefaultIgnoreRowIf: IgnoreBothMissing})

	Register(Definition{Kind: KindMulticolumnUnique, Arity: ArityMulticolumnMap,
		Multi: multicolumnUnique, DefaultIgnoreRowIf: IgnoreAllMissing})
}

// valueKey normalizes a scalar into a comparable map key: numerics of any
// width collapse to one key so 2 and 2.0 count as duplicates.
func valueKey(v any) string {
	if v == nil {
		return "null"
	}
	if f, ok := asFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if t, ok := v.(time.Time); ok {
		return "t:" + t.UTC().Format(time.RFC3339Nano)
	}

	return fmt.Sprintf("%T:%v", v, v)
}

// uniqueValues marks every occurrence of a duplicated value as unexpected,
// not just the repeats.
func uniqueValues(values []any, _ Params) ([]bool, error) {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[valueKey(v)]++
	}

	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = counts[valueKey(v)] == 1
	}

	return out, nil
}

func notNullValues(values []any, _ Params) ([]bool, error) {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v != nil
	}

	return out, nil
}

func nullValues(values []any, _ Params) ([]bool, error) {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v == nil
	}

	return out, nil
}

func resolveValueSet(params Params) ([]any, bool, error) {
	set, ok := params.Values(ParamValueSet)
	if !ok {
		return nil, false, nil
	}
	if params.Bool(ParamParseAsTime) {
		parsed := make([]any, len(set))
		for i, v := range set {
			t, err := asTime(v)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
			}
			parsed[i] = t
		}
		set = parsed
	}

	return set, true, nil
}

func containsScalar(set []any, v any) bool {
	for _, s := range set {
		if scalarEqual(s, v) {
			return true
		}
	}

	return false
}

func valuesInSet(values []any, params Params) ([]bool, error) {
	set, ok, err := resolveValueSet(params)
	if err != nil {
		return nil, err
	}

	out := make([]bool, len(values))
	for i, v := range values {
		if !ok {
			// No value set at all is vacuously satisfied.
			out[i] = true

			continue
		}
		if params.Bool(ParamParseAsTime) {
			if t, terr := asTime(v); terr == nil {
				out[i] = containsScalar(set, t)

				continue
			}
		}
		out[i] = containsScalar(set, v)
	}

	return out, nil
}

func valuesNotInSet(values []any, params Params) ([]bool, error) {
	in, err := valuesInSet(values, params)
	if err != nil {
		return nil, err
	}
	// An absent value set excludes nothing, so everything passes.
	if _, ok := params.Values(ParamValueSet); !ok {
		return in, nil
	}
	for i := range in {
		in[i] = !in[i]
	}

	return in, nil
}

func valuesBetween(values []any, params Params) ([]bool, error) {
	minVal, hasMin := params[ParamMinValue]
	maxVal, hasMax := params[ParamMaxValue]
	hasMin = hasMin && minVal != nil
	hasMax = hasMax && maxVal != nil
	if !hasMin && !hasMax {
		return nil, fmt.Errorf("%w: min_value and max_value cannot both be absent", ErrInvalidConfiguration)
	}

	parseTimes := params.Bool(ParamParseAsTime)
	if parseTimes {
		if hasMin {
			t, err := asTime(minVal)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
			}
			minVal = t
		}
		if hasMax {
			t, err := asTime(maxVal)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
			}
			maxVal = t
		}
	}

	if hasMin && hasMax {
		if cmp, err := compareScalars(minVal, maxVal); err == nil && cmp > 0 {
			return nil, fmt.Errorf("%w: min_value cannot be greater than max_value", ErrInvalidConfiguration)
		}
	}

	strictMin := params.Bool(ParamStrictMin)
	strictMax := params.Bool(ParamStrictMax)
	allowCross := params.Bool(ParamAllowCrossType)

	out := make([]bool, len(values))
	for i, v := range values {
		if parseTimes {
			if t, err := asTime(v); err == nil {
				v = t
			}
		}

		ok, err := isBetween(v, minVal, maxVal, hasMin, hasMax, strictMin, strictMax)
		if err != nil {
			if allowCross {
				out[i] = false

				continue
			}

			return nil, err
		}
		out[i] = ok
	}

	return out, nil
}

func isBetween(v, minVal, maxVal any, hasMin, hasMax, strictMin, strictMax bool) (bool, error) {
	if hasMin {
		cmp, err := compareScalars(v, minVal)
		if err != nil {
			return false, err
		}
		if cmp < 0 || (strictMin && cmp == 0) {
			return false, nil
		}
	}
	if hasMax {
		cmp, err := compareScalars(v, maxVal)
		if err != nil {
			return false, err
		}
		if cmp > 0 || (strictMax && cmp == 0) {
			return false, nil
		}
	}

	return true, nil
}

func integerBound(params Params, key string) (int64, bool, error) {
	v, present := params[key]
	if !present || v == nil {
		return 0, false, nil
	}
	n, ok := params.Int(key)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s must be an integer", ErrInvalidConfiguration, key)
	}

	return n, true, nil
}

func lengthsBetween(values []any, params Params) ([]bool, error) {
	minLen, hasMin, err := integerBound(params, ParamMinValue)
	if err != nil {
		return nil, err
	}
	maxLen, hasMax, err := integerBound(params, ParamMaxValue)
	if err != nil {
		return nil, err
	}
	if !hasMin && !hasMax {
		return nil, fmt.Errorf("%w: min_value and max_value cannot both be absent", ErrInvalidConfiguration)
	}

	out := make([]bool, len(values))
	for i, v := range values {
		n := int64(len([]rune(renderScalar(v))))
		out[i] = (!hasMin || n >= minLen) && (!hasMax || n <= maxLen)
	}

	return out, nil
}

func lengthsEqual(values []any, params Params) ([]bool, error) {
	want, ok := params.Int(ParamValue)
	if !ok {
		return nil, fmt.Errorf("%w: value must be an integer", ErrInvalidConfiguration)
	}

	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = int64(len([]rune(renderScalar(v)))) == want
	}

	return out, nil
}

func compileRegexParam(params Params, key string) (*regexp.Regexp, error) {
	pattern, ok := params.String(key)
	if !ok || pattern == "" {
		return nil, fmt.Errorf("%w: missing %q parameter", ErrInvalidConfiguration, key)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex %q: %s", ErrInvalidConfiguration, pattern, err)
	}

	return re, nil
}

func matchRegex(negate bool) MapPredicate {
	return func(values []any, params Params) ([]bool, error) {
		re, err := compileRegexParam(params, ParamRegex)
		if err != nil {
			return nil, err
		}

		out := make([]bool, len(values))
		for i, v := range values {
			out[i] = re.MatchString(renderScalar(v)) != negate
		}

		return out, nil
	}
}

func compileRegexList(params Params) ([]*regexp.Regexp, error) {
	patterns, ok := params.Strings(ParamRegexList)
	if !ok || len(patterns) == 0 {
		return nil, fmt.Errorf("%w: missing %q parameter", ErrInvalidConfiguration, ParamRegexList)
	}
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid regex %q: %s", ErrInvalidConfiguration, p, err)
		}
		res[i] = re
	}

	return res, nil
}

func matchRegexList(values []any, params Params) ([]bool, error) {
	res, err := compileRegexList(params)
	if err != nil {
		return nil, err
	}
	matchOn, ok := params.String(ParamMatchOn)
	if !ok || matchOn == "" {
		matchOn = "any"
	}
	if matchOn != "any" && matchOn != "all" {
		return nil, fmt.Errorf("%w: match_on must be either 'any' or 'all'", ErrInvalidConfiguration)
	}

	out := make([]bool, len(values))
	for i, v := range values {
		s := renderScalar(v)
		matched := matchOn == "all"
		for _, re := range res {
			hit := re.MatchString(s)
			if matchOn == "any" && hit {
				matched = true

				break
			}
			if matchOn == "all" && !hit {
				matched = false

				break
			}
		}
		out[i] = matched
	}

	return out, nil
}

func notMatchRegexList(values []any, params Params) ([]bool, error) {
	res, err := compileRegexList(params)
	if err != nil {
		return nil, err
	}

	out := make([]bool, len(values))
	for i, v := range values {
		s := renderScalar(v)
		out[i] = true
		for _, re := range res {
			if re.MatchString(s) {
				out[i] = false

				break
			}
		}
	}

	return out, nil
}

func matchTimeFormat(values []any, params Params) ([]bool, error) {
	layout, ok := params.String(ParamTimeFormat)
	if !ok || layout == "" {
		return nil, fmt.Errorf("%w: missing %q parameter", ErrInvalidConfiguration, ParamTimeFormat)
	}
	// A layout must survive a format/parse round trip to be usable.
	now := time.Now().UTC()
	if _, err := time.Parse(layout, now.Format(layout)); err != nil {
		return nil, fmt.Errorf("%w: unable to use provided time format %q: %s",
			ErrInvalidConfiguration, layout, err)
	}

	out := make([]bool, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires string values; validate before converting from string form",
				ErrTypeMismatch, KindMatchTimeFormat)
		}
		_, err := time.Parse(layout, s)
		out[i] = err == nil
	}

	return out, nil
}

func parseableAsTime(values []any, _ Params) ([]bool, error) {
	out := make([]bool, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires string values; validate before converting from string form",
				ErrTypeMismatch, KindParseableAsTime)
		}
		_, err := ParseTime(s)
		out[i] = err == nil
	}

	return out, nil
}

func jsonParseable(values []any, _ Params) ([]bool, error) {
	out := make([]bool, len(values))
	for i, v := range values {
		s, ok := v.(string)
		out[i] = ok && json.Valid([]byte(s))
	}

	return out, nil
}

// monotonic checks that each value relates to its predecessor with the given
// sign. The first evaluated element has no predecessor and always passes.
func monotonic(direction int) MapPredicate {
	return func(values []any, params Params) ([]bool, error) {
		strictly := params.Bool(ParamStrictly)
		parseTimes := params.Bool(ParamParseAsTime)

		seq := values
		if parseTimes {
			seq = make([]any, len(values))
			for i, v := range values {
				t, err := asTime(v)
				if err != nil {
					return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, err)
				}
				seq[i] = t
			}
		}

		out := make([]bool, len(seq))
		for i := range seq {
			if i == 0 {
				out[i] = true

				continue
			}
			cmp, err := compareScalars(seq[i], seq[i-1])
			if err != nil {
				return nil, err
			}
			if strictly {
				out[i] = cmp*direction > 0
			} else {
				out[i] = cmp*direction >= 0
			}
		}

		return out, nil
	}
}

// pairEqual treats a null on either side as unequal; a row with both values
// null is normally ignored by the partitioner before this runs.
func pairEqual(a, b []any, _ Params) ([]bool, error) {
	out := make([]bool, len(a))
	for i := range a {
		if a[i] == nil || b[i] == nil {
			out[i] = false

			continue
		}
		out[i] = scalarEqual(a[i], b[i])
	}

	return out, nil
}

func pairAGreaterThanB(a, b []any, params Params) ([]bool, error) {
	if params.Bool(ParamAllowCrossType) {
		return nil, fmt.Errorf("%w: cross-type comparisons are not supported for %s",
			ErrInvalidConfiguration, KindPairAGreaterThanB)
	}
	orEqual := params.Bool(ParamOrEqual)
	parseTimes := params.Bool(ParamParseAsTime)

	out := make([]bool, len(a))
	for i := range a {
		av, bv := a[i], b[i]
		if av == nil || bv == nil {
			out[i] = false

			continue
		}
		if parseTimes {
			at, err := asTime(av)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, err)
			}
			bt, err := asTime(bv)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, err)
			}
			av, bv = at, bt
		}
		cmp, err := compareScalars(av, bv)
		if err != nil {
			return nil, err
		}
		if orEqual {
			out[i] = cmp >= 0
		} else {
			out[i] = cmp > 0
		}
	}

	return out, nil
}

func pairInSet(a, b []any, params Params) ([]bool, error) {
	pairs, ok := params.Values(ParamValuePairsSet)
	if !ok {
		// Vacuously true.
		out := make([]bool, len(a))
		for i := range out {
			out[i] = true
		}

		return out, nil
	}

	type pair struct{ a, b any }
	set := make([]pair, 0, len(pairs))
	for _, p := range pairs {
		elems, ok := p.([]any)
		if !ok || len(elems) != 2 {
			return nil, fmt.Errorf("%w: value_pairs_set entries must be two-element pairs, got %v",
				ErrInvalidConfiguration, p)
		}
		set = append(set, pair{elems[0], elems[1]})
	}

	out := make([]bool, len(a))
	for i := range a {
		for _, p := range set {
			if scalarEqual(p.a, a[i]) && scalarEqual(p.b, b[i]) {
				out[i] = true

				break
			}
		}
	}

	return out, nil
}

// multicolumnUnique requires every targeted column to hold a distinct value
// within each row; nulls count as values.
func multicolumnUnique(rows []map[string]any, columns []string, _ Params) ([]bool, error) {
	out := make([]bool, len(rows))
	for i, row := range rows {
		seen := make(map[string]bool, len(columns))
		for _, c := range columns {
			seen[valueKey(row[c])] = true
		}
		out[i] = len(seen) == len(columns)
	}

	return out, nil
}
