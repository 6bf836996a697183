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

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/datavet/datavet-go"
)

type Output interface {
	Kinds([]string)
	Suite(*datavet.Suite)
	Results(*datavet.Batch, *datavet.SuiteResult)
	Error(error)
}

type textOutput struct{}

func (textOutput) Kinds(kinds []string) {
	data := pterm.TableData{[]string{"Kind"}}
	for _, k := range kinds {
		data = append(data, []string{k})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Suite(s *datavet.Suite) {
	data := pterm.TableData{[]string{"Kind", "Columns", "Last Run"}}
	for _, ac := range s.Configs() {
		lastRun := ""
		if ac.SuccessOnLastRun != nil {
			lastRun = strconv.FormatBool(*ac.SuccessOnLastRun)
		}
		data = append(data, []string{ac.Kind, strings.Join(ac.Columns, ", "), lastRun})
	}

	pterm.DefaultSection.Println("Suite " + s.Name)
	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Results(b *datavet.Batch, res *datavet.SuiteResult) {
	pterm.DefaultTable.
		WithData(pterm.TableData{
			{"Suite", res.SuiteName},
			{"Source", b.Spec.Path},
			{"Batch", b.Markers.BatchID},
			{"Loaded", b.Markers.LoadTime},
		}).Render()

	data := pterm.TableData{[]string{"Status", "Kind", "Columns", "Unexpected"}}
	for _, r := range res.Results {
		status := pterm.Green("pass")
		unexpected := ""
		switch {
		case r.Err != nil:
			status = pterm.Red("error")
			unexpected = r.Err.Error()
		case !r.Result.Success:
			status = pterm.Red("fail")
			if r.Result.UnexpectedCount != nil && r.Result.ElementCount != nil {
				unexpected = fmt.Sprintf("%d of %d", *r.Result.UnexpectedCount, *r.Result.ElementCount)
			}
		}
		data = append(data, []string{status, r.Config.Kind, strings.Join(r.Config.Columns, ", "), unexpected})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()

	if res.Success {
		pterm.Success.Println("suite passed")
	} else {
		pterm.Error.Println("suite failed")
	}
}

func (textOutput) Error(err error) {
	pterm.Error.Println(err.Error())
}

type jsonOutput struct{}

func (jsonOutput) write(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}

func (j jsonOutput) Kinds(kinds []string) { j.write(kinds) }

func (j jsonOutput) Suite(s *datavet.Suite) {
	j.write(struct {
		Name       string                     `json:"name"`
		Assertions []*datavet.AssertionConfig `json:"assertions"`
	}{s.Name, s.Configs()})
}

func (j jsonOutput) Results(b *datavet.Batch, res *datavet.SuiteResult) {
	type entry struct {
		Kind    string                    `json:"kind"`
		Columns []string                  `json:"columns"`
		Result  *datavet.ValidationResult `json:"result,omitempty"`
		Error   string                    `json:"error,omitempty"`
	}

	out := struct {
		Suite   string               `json:"suite"`
		Success bool                 `json:"success"`
		Spec    datavet.BatchSpec    `json:"batch_spec"`
		Markers datavet.BatchMarkers `json:"batch_markers"`
		Results []entry              `json:"results"`
	}{Suite: res.SuiteName, Success: res.Success, Spec: b.Spec, Markers: b.Markers}

	for _, r := range res.Results {
		e := entry{Kind: r.Config.Kind, Columns: r.Config.Columns, Result: r.Result}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		out.Results = append(out.Results, e)
	}

	j.write(out)
}

func (j jsonOutput) Error(err error) {
	j.write(map[string]string{"error": err.Error()})
}
