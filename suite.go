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
	"slices"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// AssertionConfig is one persisted assertion: a named check, its target
// columns, its parameter map, and bookkeeping from the last run. Identity
// within a suite is the (Kind, Columns) pair.
type AssertionConfig struct {
	ID               string   `yaml:"id,omitempty" json:"id,omitempty"`
	Kind             string   `yaml:"kind" json:"kind"`
	Columns          []string `yaml:"columns,flow" json:"columns"`
	Params           Params   `yaml:"params,omitempty" json:"params,omitempty"`
	DetailLevel      string   `yaml:"detail_level,omitempty" json:"detail_level,omitempty"`
	SuccessOnLastRun *bool    `yaml:"success_on_last_run,omitempty" json:"success_on_last_run,omitempty"`
}

func (c *AssertionConfig) clone() *AssertionConfig {
	out := *c
	out.Columns = slices.Clone(c.Columns)
	if c.Params != nil {
		out.Params = make(Params, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}

	return &out
}

// Suite is the persisted ordered collection of assertion configurations for a
// dataset. It is mutable shared state: all mutation happens under one mutex,
// and normalization's remove-then-insert assumes no interleaving writers.
type Suite struct {
	Name string

	mu      sync.Mutex
	configs []*AssertionConfig
}

func NewSuite(name string) *Suite { return &Suite{Name: name} }

// Len returns the number of persisted assertions.
func (s *Suite) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.configs)
}

// Configs returns a snapshot of the persisted assertions, in order.
func (s *Suite) Configs() []*AssertionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*AssertionConfig, len(s.configs))
	for i, c := range s.configs {
		out[i] = c.clone()
	}

	return out
}

// Append records a configuration, replacing any existing entry with the same
// (kind, columns) identity so the suite never holds two entries for one
// logical assertion. A missing ID is assigned.
func (s *Suite) Append(cfg *AssertionConfig) {
	c := cfg.clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findLocked(c.Kind, c.Columns); i >= 0 {
		s.configs = slices.Delete(s.configs, i, i+1)
	}
	s.configs = append(s.configs, c)
}

// Find returns a copy of the entry with the given identity, or nil.
func (s *Suite) Find(kind string, columns []string) *AssertionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findLocked(kind, columns); i >= 0 {
		return s.configs[i].clone()
	}

	return nil
}

// SetSuccessOnLastRun records the outcome of the most recent evaluation of
// the identified assertion.
func (s *Suite) SetSuccessOnLastRun(kind string, columns []string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findLocked(kind, columns); i >= 0 {
		s.configs[i].SuccessOnLastRun = &success
	}
}

func (s *Suite) findLocked(kind string, columns []string) int {
	for i, c := range s.configs {
		if c.Kind == kind && slices.Equal(c.Columns, columns) {
			return i
		}
	}

	return -1
}

// normalizeRouted reconciles the record of a type-routed assertion: the entry
// recorded under the internal routed kind is relabeled back to the public
// kind, after removing any pre-existing entry for the public identity. After
// this the suite holds no internal routed-name entries and at most one entry
// per (public kind, columns).
func (s *Suite) normalizeRouted(publicKind, routedKind string, columns []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findLocked(publicKind, columns); i >= 0 {
		s.configs = slices.Delete(s.configs, i, i+1)
	}
	if i := s.findLocked(routedKind, columns); i >= 0 {
		old := s.configs[i]
		relabeled := old.clone()
		relabeled.Kind = publicKind
		s.configs[i] = relabeled
	}
}

type suiteDoc struct {
	Name       string             `yaml:"name"`
	Assertions []*AssertionConfig `yaml:"assertions"`
}

// LoadSuite parses a yaml suite document.
func LoadSuite(data []byte) (*Suite, error) {
	var doc suiteDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
	}

	s := NewSuite(doc.Name)
	for _, cfg := range doc.Assertions {
		s.Append(cfg)
	}

	return s, nil
}

// Bytes serializes the suite as a yaml document.
func (s *Suite) Bytes() ([]byte, error) {
	s.mu.Lock()
	doc := suiteDoc{Name: s.Name, Assertions: s.configs}
	defer s.mu.Unlock()

	return yaml.Marshal(doc)
}
