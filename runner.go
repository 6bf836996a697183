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
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// AssertionResult pairs one suite entry with its evaluation outcome. Exactly
// one of Result and Err is set.
type AssertionResult struct {
	Config *AssertionConfig
	Result *ValidationResult
	Err    error
}

// SuiteResult is the outcome of running every assertion in a suite against
// one dataset.
type SuiteResult struct {
	SuiteName string
	RunTime   time.Time
	Success   bool
	Results   []AssertionResult
}

type RunOption func(*runConfig)

type runConfig struct {
	workers int
}

// WithWorkers evaluates up to n assertions concurrently. The default is
// sequential evaluation.
func WithWorkers(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// columnsToParams maps a configuration's column list onto the parameter keys
// the definition's invocation shape expects.
func columnsToParams(def Definition, cfg *AssertionConfig) (Params, error) {
	params := make(Params, len(cfg.Params)+2)
	for k, v := range cfg.Params {
		params[k] = v
	}

	switch def.Arity {
	case ArityColumnMap, ArityAggregate, ArityTypeRouted:
		if len(cfg.Columns) != 1 {
			return nil, fmt.Errorf("%w: %s requires exactly one column, got %d",
				ErrInvalidConfiguration, cfg.Kind, len(cfg.Columns))
		}
		params[ParamColumn] = cfg.Columns[0]
	case ArityColumnPairMap:
		if len(cfg.Columns) != 2 {
			return nil, fmt.Errorf("%w: %s requires exactly two columns, got %d",
				ErrInvalidConfiguration, cfg.Kind, len(cfg.Columns))
		}
		params[ParamColumnA] = cfg.Columns[0]
		params[ParamColumnB] = cfg.Columns[1]
	case ArityMulticolumnMap:
		if len(cfg.Columns) < 2 {
			return nil, fmt.Errorf("%w: %s requires at least two columns, got %d",
				ErrInvalidConfiguration, cfg.Kind, len(cfg.Columns))
		}
		cols := make([]any, len(cfg.Columns))
		for i, c := range cfg.Columns {
			cols[i] = c
		}
		params[ParamColumnList] = cols
	}

	return params, nil
}

// RunSuite evaluates every assertion in the suite against the dataset. A
// failing or misconfigured assertion is recorded on its own result and never
// aborts the run; only context cancellation does. Each entry's
// SuccessOnLastRun is updated afterwards.
func (e *Engine) RunSuite(ctx context.Context, s *Suite, ds Dataset, opts ...RunOption) (*SuiteResult, error) {
	cfg := runConfig{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	configs := s.Configs()
	out := &SuiteResult{
		SuiteName: s.Name,
		RunTime:   nowUTC(),
		Results:   make([]AssertionResult, len(configs)),
	}

	// Workers use a bookkeeping-free engine copy so concurrent evaluations
	// never mutate the suite mid-run.
	runner := e.activeCopy()

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(cfg.workers)
	for i, ac := range configs {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out.Results[i] = runAssertion(runner, ac, ds)

			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	out.Success = true
	for _, r := range out.Results {
		success := r.Err == nil && r.Result != nil && r.Result.Success
		out.Success = out.Success && success
		s.SetSuccessOnLastRun(r.Config.Kind, r.Config.Columns, success)
	}

	return out, nil
}

func runAssertion(e *Engine, ac *AssertionConfig, ds Dataset) AssertionResult {
	res := AssertionResult{Config: ac}

	def, ok := e.registry.Get(ac.Kind)
	if !ok {
		res.Err = fmt.Errorf("%w: unknown assertion kind %q", ErrInvalidConfiguration, ac.Kind)

		return res
	}

	level := ParseDetailLevel(ac.DetailLevel)

	params, err := columnsToParams(def, ac)
	if err != nil {
		res.Err = err

		return res
	}

	res.Result, res.Err = e.Evaluate(ac.Kind, params, ds, level)

	return res
}
