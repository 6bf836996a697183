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

package suitestore

import (
	"io"

	"github.com/hamba/avro/v2/ocf"

	"github.com/datavet/datavet-go"
)

const historySchema = `{
	"type": "record",
	"name": "run_record",
	"fields": [
		{"name": "suite_name", "type": "string"},
		{"name": "assertion_id", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "columns", "type": {"type": "array", "items": "string"}},
		{"name": "success", "type": "boolean"},
		{"name": "element_count", "type": "long"},
		{"name": "unexpected_count", "type": "long"},
		{"name": "run_time_us", "type": "long"}
	]
}`

// RunRecord is one assertion outcome as archived in the run history. Counts
// are -1 when the result did not carry them, such as boolean-only results or
// aggregate checks.
type RunRecord struct {
	SuiteName       string   `avro:"suite_name"`
	AssertionID     string   `avro:"assertion_id"`
	Kind            string   `avro:"kind"`
	Columns         []string `avro:"columns"`
	Success         bool     `avro:"success"`
	ElementCount    int64    `avro:"element_count"`
	UnexpectedCount int64    `avro:"unexpected_count"`
	RunTimeUS       int64    `avro:"run_time_us"`
}

// HistoryWriter archives suite run outcomes to an avro object container file.
type HistoryWriter struct {
	enc *ocf.Encoder
}

func NewHistoryWriter(w io.Writer) (*HistoryWriter, error) {
	enc, err := ocf.NewEncoder(historySchema, w, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return nil, err
	}

	return &HistoryWriter{enc: enc}, nil
}

// Append writes one record per assertion in the run.
func (h *HistoryWriter) Append(run *datavet.SuiteResult) error {
	for _, r := range run.Results {
		rec := RunRecord{
			SuiteName:       run.SuiteName,
			Kind:            r.Config.Kind,
			Columns:         r.Config.Columns,
			ElementCount:    -1,
			UnexpectedCount: -1,
			RunTimeUS:       run.RunTime.UnixMicro(),
		}
		if rec.Columns == nil {
			rec.Columns = []string{}
		}
		rec.AssertionID = r.Config.ID
		if r.Result != nil {
			rec.Success = r.Result.Success
			if r.Result.ElementCount != nil {
				rec.ElementCount = int64(*r.Result.ElementCount)
			}
			if r.Result.UnexpectedCount != nil {
				rec.UnexpectedCount = int64(*r.Result.UnexpectedCount)
			}
		}
		if err := h.enc.Encode(rec); err != nil {
			return err
		}
	}

	return h.enc.Flush()
}

func (h *HistoryWriter) Close() error { return h.enc.Close() }

// ReadHistory decodes every archived record from an avro container stream.
func ReadHistory(r io.Reader) ([]RunRecord, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	var out []RunRecord
	for dec.HasNext() {
		var rec RunRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, dec.Error()
}
