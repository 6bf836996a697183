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

// IgnoreRowIf selects which rows are excluded from evaluation as missing
// before the predicate runs.
type IgnoreRowIf string

const (
	// IgnoreBothMissing ignores a pair row iff both values are null. Default
	// for column-pair assertions.
	IgnoreBothMissing IgnoreRowIf = "both_values_are_missing"
	// IgnoreEitherMissing ignores a pair row iff at least one value is null.
	IgnoreEitherMissing IgnoreRowIf = "either_value_is_missing"
	// IgnoreAllMissing ignores a multicolumn row iff every targeted column is
	// null. Default for multicolumn assertions.
	IgnoreAllMissing IgnoreRowIf = "all_values_are_missing"
	// IgnoreAnyMissing ignores a multicolumn row iff any targeted column is null.
	IgnoreAnyMissing IgnoreRowIf = "any_value_is_missing"
	// IgnoreNever ignores nothing.
	IgnoreNever IgnoreRowIf = "never"
)

// partition is the outcome of missing-row partitioning: which positions
// survive to evaluation and how the population splits.
type partition struct {
	// evalIdx holds the surviving row positions, in order.
	evalIdx []int
	// elementCount is the full population size after row filtering.
	elementCount int
	// missingCount is the number of rows excluded as missing.
	missingCount int
}

func (p partition) evaluatedCount() int { return len(p.evalIdx) }

// partitionSingle partitions one column. A value is ignored iff it is null,
// unless includeNulls is set (the null-presence checks evaluate every row,
// since missingness is the subject of the check rather than noise).
func partitionSingle(col Column, includeNulls bool) partition {
	nulls := col.IsNull()
	p := partition{elementCount: col.Len()}
	for i, isNull := range nulls {
		if isNull && !includeNulls {
			p.missingCount++

			continue
		}
		p.evalIdx = append(p.evalIdx, i)
	}

	return p
}

// partitionPair partitions a column pair under the given policy. The two
// columns must have equal length.
func partitionPair(a, b Column, policy IgnoreRowIf) (partition, error) {
	if a.Len() != b.Len() {
		return partition{}, fmt.Errorf("%w: columns %q and %q must be the same length (%d != %d)",
			ErrInvalidConfiguration, a.Name(), b.Name(), a.Len(), b.Len())
	}
	if policy == "" {
		policy = IgnoreBothMissing
	}

	nullsA, nullsB := a.IsNull(), b.IsNull()
	p := partition{elementCount: a.Len()}
	for i := 0; i < a.Len(); i++ {
		var skip bool
		switch policy {
		case IgnoreBothMissing:
			skip = nullsA[i] && nullsB[i]
		case IgnoreEitherMissing:
			skip = nullsA[i] || nullsB[i]
		case IgnoreNever:
			skip = false
		default:
			return partition{}, fmt.Errorf("%w: unknown value of ignore_row_if: %q",
				ErrInvalidConfiguration, policy)
		}
		if skip {
			p.missingCount++

			continue
		}
		p.evalIdx = append(p.evalIdx, i)
	}

	return p, nil
}

// partitionMulti partitions rows across a column set under the given policy.
func partitionMulti(cols []Column, policy IgnoreRowIf) (partition, error) {
	if policy == "" {
		policy = IgnoreAllMissing
	}
	if len(cols) == 0 {
		return partition{}, fmt.Errorf("%w: multicolumn assertion requires at least one column",
			ErrInvalidConfiguration)
	}

	n := cols[0].Len()
	nulls := make([][]bool, len(cols))
	for i, c := range cols {
		if c.Len() != n {
			return partition{}, fmt.Errorf("%w: column %q has length %d, want %d",
				ErrInvalidConfiguration, c.Name(), c.Len(), n)
		}
		nulls[i] = c.IsNull()
	}

	p := partition{elementCount: n}
	for row := 0; row < n; row++ {
		var skip bool
		switch policy {
		case IgnoreAllMissing:
			skip = true
			for _, col := range nulls {
				if !col[row] {
					skip = false

					break
				}
			}
		case IgnoreAnyMissing:
			for _, col := range nulls {
				if col[row] {
					skip = true

					break
				}
			}
		case IgnoreNever:
			skip = false
		default:
			return partition{}, fmt.Errorf("%w: unknown value of ignore_row_if: %q",
				ErrInvalidConfiguration, policy)
		}
		if skip {
			p.missingCount++

			continue
		}
		p.evalIdx = append(p.evalIdx, row)
	}

	return p, nil
}
