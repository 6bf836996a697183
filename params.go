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

import "fmt"

// Standard parameter keys shared by every assertion configuration. Check
// specific parameters (value_set, min_value, regex, ...) are documented on
// the individual checks.
const (
	// ParamColumn names the target column of a single-column assertion.
	ParamColumn = "column"
	// ParamColumnA and ParamColumnB name the columns of a pair assertion.
	ParamColumnA = "column_a"
	ParamColumnB = "column_b"
	// ParamColumnList names the columns of a multicolumn assertion.
	ParamColumnList = "column_list"
	// ParamMostly is the minimum success fraction in [0, 1] for a map-style
	// assertion to pass.
	ParamMostly = "mostly"
	// ParamIgnoreRowIf selects the missing-row policy.
	ParamIgnoreRowIf = "ignore_row_if"
	// ParamRowCondition and ParamConditionParser configure the optional row
	// filter applied before partitioning.
	ParamRowCondition    = "row_condition"
	ParamConditionParser = "condition_parser"
	// ParamOutputTimeFormat requests temporal re-rendering of unexpected
	// evidence in the given layout.
	ParamOutputTimeFormat = "output_time_format"
)

// Params is the parameter map of an assertion configuration.
type Params map[string]any

// String returns the string value for key, if present and a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)

	return s, ok
}

// Bool returns the bool value for key, false if absent.
func (p Params) Bool(key string) bool {
	v, ok := p[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)

	return b
}

// Float returns the numeric value for key widened to float64.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}

	return asFloat(v)
}

// Int returns the numeric value for key as an int64, requiring it to be
// integral.
func (p Params) Int(key string) (int64, bool) {
	f, ok := p.Float(key)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}

	return int64(f), true
}

// Values returns the []any value for key, normalizing from typed slices.
func (p Params) Values(key string) ([]any, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}

		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = int64(n)
		}

		return out, true
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}

		return out, true
	}

	return nil, false
}

// Strings returns the value for key as a string slice.
func (p Params) Strings(key string) ([]string, bool) {
	vals, ok := p.Values(key)
	if !ok {
		return nil, false
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}

	return out, true
}

// Mostly extracts and validates the mostly threshold. Returns nil when unset.
func (p Params) Mostly() (*float64, error) {
	v, ok := p[ParamMostly]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := asFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: mostly must be a number, got %T", ErrInvalidConfiguration, v)
	}
	if f < 0 || f > 1 {
		return nil, fmt.Errorf("%w: mostly must be between 0 and 1, got %v", ErrInvalidConfiguration, f)
	}

	return &f, nil
}

// IgnoreRowIf returns the configured missing-row policy, or the given default
// when unset.
func (p Params) IgnoreRowIf(def IgnoreRowIf) IgnoreRowIf {
	s, ok := p.String(ParamIgnoreRowIf)
	if !ok || s == "" {
		return def
	}

	return IgnoreRowIf(s)
}
