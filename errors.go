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

import "errors"

var (
	// ErrInvalidConfiguration is returned for malformed assertion parameters:
	// a bad ignore_row_if value, a disallowed mostly, an unrecognized type
	// name, absent bounds, and so on. It is always surfaced to the caller
	// immediately and never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrTypeMismatch is returned when evaluated values cannot be compared
	// against the configured bounds or constraints and cross-type comparison
	// was not allowed.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrPredicateFailure is returned when an assertion's own evaluation logic
	// fails mid-computation, indicating the assertion itself is unusable as
	// opposed to a value merely failing the check.
	ErrPredicateFailure = errors.New("predicate failure")

	// ErrEvidenceRendering is returned when formatting unexpected evidence
	// fails, e.g. re-rendering a value in a requested time format.
	ErrEvidenceRendering = errors.New("evidence rendering failure")

	// ErrBatchSpec is returned for batch specifications that cannot be turned
	// into a loaded dataset.
	ErrBatchSpec = errors.New("invalid batch spec")
)
