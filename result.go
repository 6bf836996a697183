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
	"sort"
)

// DetailLevel controls how much of a ValidationResult is populated.
type DetailLevel int

const (
	// DetailDefault resolves to DetailSummary.
	DetailDefault DetailLevel = iota
	// DetailBooleanOnly populates only Success.
	DetailBooleanOnly
	// DetailBasic adds the scalar counts and percentages.
	DetailBasic
	// DetailSummary adds bounded evidence samples and the partial value
	// frequency breakdown. This is the default.
	DetailSummary
	// DetailComplete adds the full untruncated unexpected value and index lists.
	DetailComplete
)

// DefaultSampleBound is the default cap on partial evidence lists.
const DefaultSampleBound = 20

func (d DetailLevel) String() string {
	switch d {
	case DetailBooleanOnly:
		return "BOOLEAN_ONLY"
	case DetailBasic:
		return "BASIC"
	case DetailComplete:
		return "COMPLETE"
	default:
		return "SUMMARY"
	}
}

// ParseDetailLevel maps a wire name to a DetailLevel; unknown names resolve
// to the default.
func ParseDetailLevel(s string) DetailLevel {
	switch s {
	case "BOOLEAN_ONLY":
		return DetailBooleanOnly
	case "BASIC":
		return DetailBasic
	case "SUMMARY":
		return DetailSummary
	case "COMPLETE":
		return DetailComplete
	}

	return DetailDefault
}

// ValueCount is one entry of the partial unexpected value frequency breakdown.
type ValueCount struct {
	Value any `json:"value" yaml:"value"`
	Count int `json:"count" yaml:"count"`
}

// ValidationResult is the structured verdict of one assertion evaluation.
// Field presence follows the detail level and the null-presence special case;
// both are part of the wire contract. A result is never mutated after
// construction.
type ValidationResult struct {
	Success bool `json:"success"`

	ElementCount                *int     `json:"element_count,omitempty"`
	MissingCount                *int     `json:"missing_count,omitempty"`
	MissingPercent              *float64 `json:"missing_percent,omitempty"`
	UnexpectedCount             *int     `json:"unexpected_count,omitempty"`
	UnexpectedPercent           *float64 `json:"unexpected_percent,omitempty"`
	UnexpectedPercentNonmissing *float64 `json:"unexpected_percent_nonmissing,omitempty"`

	PartialUnexpectedList      []any        `json:"partial_unexpected_list,omitempty"`
	PartialUnexpectedIndexList []int        `json:"partial_unexpected_index_list,omitempty"`
	PartialUnexpectedCounts    []ValueCount `json:"partial_unexpected_counts,omitempty"`

	UnexpectedList      []any `json:"unexpected_list,omitempty"`
	UnexpectedIndexList []int `json:"unexpected_index_list,omitempty"`

	// ObservedValue and Details are populated by aggregate checks in place of
	// the map evidence fields.
	ObservedValue any            `json:"observed_value,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// formatMapResult assembles the result for a map-style evaluation at the
// requested detail level. nullPresence marks the two null-presence checks,
// which omit the missing statistics and the nonmissing-relative percentage
// entirely and suppress the partial breakdown and sample.
func formatMapResult(level DetailLevel, bound int, success bool,
	elementCount, nonmissingCount int,
	unexpectedList []any, unexpectedIdx []int, nullPresence bool) *ValidationResult {
	if level == DetailDefault {
		level = DetailSummary
	}
	if bound < 0 {
		bound = DefaultSampleBound
	}

	res := &ValidationResult{Success: success}
	if level == DetailBooleanOnly {
		return res
	}

	unexpectedCount := len(unexpectedList)
	missingCount := elementCount - nonmissingCount

	res.ElementCount = intPtr(elementCount)
	res.UnexpectedCount = intPtr(unexpectedCount)
	if elementCount > 0 {
		res.UnexpectedPercent = floatPtr(float64(unexpectedCount) / float64(elementCount))
	}
	if !nullPresence {
		res.MissingCount = intPtr(missingCount)
		if elementCount > 0 {
			res.MissingPercent = floatPtr(float64(missingCount) / float64(elementCount))
		}
		if nonmissingCount > 0 {
			res.UnexpectedPercentNonmissing = floatPtr(float64(unexpectedCount) / float64(nonmissingCount))
		}
	}

	if level == DetailBasic {
		return res
	}

	partialBound := bound
	if nullPresence {
		// Counting the most common unexpected values is pointless when the
		// unexpected values are all nulls (or all non-nulls).
		partialBound = 0
	}

	if level >= DetailSummary && partialBound > 0 {
		res.PartialUnexpectedList = truncate(unexpectedList, partialBound)
		res.PartialUnexpectedCounts = partialCounts(unexpectedList, partialBound)
	}
	if level >= DetailSummary {
		res.PartialUnexpectedIndexList = truncate(unexpectedIdx, bound)
	}

	if level == DetailComplete {
		res.UnexpectedList = unexpectedList
		res.UnexpectedIndexList = unexpectedIdx
	}

	return res
}

func truncate[T any](vals []T, bound int) []T {
	if len(vals) <= bound {
		return vals
	}

	return vals[:bound]
}

// partialCounts builds the value-frequency breakdown of the unexpected list,
// keeping at most bound entries ordered by descending count and then by
// rendered value for determinism.
func partialCounts(unexpected []any, bound int) []ValueCount {
	type bucket struct {
		value any
		count int
	}
	byKey := make(map[string]*bucket)
	order := make([]string, 0)
	for _, v := range unexpected {
		key := renderScalar(v)
		if b, ok := byKey[key]; ok {
			b.count++

			continue
		}
		byKey[key] = &bucket{value: v, count: 1}
		order = append(order, key)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := byKey[order[i]], byKey[order[j]]
		if a.count != b.count {
			return a.count > b.count
		}

		return order[i] < order[j]
	})

	out := make([]ValueCount, 0, min(bound, len(order)))
	for _, key := range truncate(order, bound) {
		out = append(out, ValueCount{Value: byKey[key].value, Count: byKey[key].count})
	}

	return out
}
