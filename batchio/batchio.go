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

// Package batchio loads datasets from blob storage into evaluable batches.
package batchio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"

	"github.com/datavet/datavet-go"
)

// GuessReaderMethod picks a reader from a path's extension. Unknown
// extensions fail with ErrBatchSpec since silently guessing a format risks
// loading garbage.
func GuessReaderMethod(p string) (string, error) {
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".csv", ".tsv":
		return "csv", nil
	case ".json", ".jsonl", ".ndjson":
		return "json", nil
	case ".parquet":
		return "parquet", nil
	default:
		return "", fmt.Errorf("%w: unable to determine reader method from path %q",
			datavet.ErrBatchSpec, p)
	}
}

// ReadBatch opens the bucket at bucketURL, picks a reader
// from the key's extension, and loads the object as a batch.
func ReadBatch(ctx context.Context, bucketURL, key string) (*datavet.Batch, error) {
	method, err := GuessReaderMethod(key)
	if err != nil {
		return nil, err
	}
	if method != "csv" {
		return nil, fmt.Errorf("%w: reader method %q is not implemented", datavet.ErrBatchSpec, method)
	}

	return ReadCSV(ctx, bucketURL, key)
}

// ReadCSV loads a headered CSV object from a blob bucket. Each column's type
// is sniffed from its values; a column with mixed sniffed types falls back to
// strings under an open declared type.
func ReadCSV(ctx context.Context, bucketURL, key string) (*datavet.Batch, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: opening bucket %q: %s", datavet.ErrBatchSpec, bucketURL, err)
	}
	defer bucket.Close()

	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening object %q: %s", datavet.ErrBatchSpec, key, err)
	}
	defer r.Close()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if strings.HasSuffix(strings.ToLower(key), ".tsv") {
		cr.Comma = '\t'
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header of %q: %s", datavet.ErrBatchSpec, key, err)
	}

	raw := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %q: %s", datavet.ErrBatchSpec, key, err)
		}
		for i := range header {
			if i < len(rec) {
				raw[i] = append(raw[i], rec[i])
			} else {
				raw[i] = append(raw[i], "")
			}
		}
	}

	cols := make([]*datavet.TableColumn, len(header))
	for i, name := range header {
		cols[i] = sniffColumn(name, raw[i])
	}

	ds := datavet.NewTable(cols...)
	spec := datavet.BatchSpec{
		Path:    bucketURL + "/" + key,
		Reader:  "csv",
		Options: map[string]string{"header": "true"},
	}

	return datavet.NewBatch(ds, spec), nil
}

// sniffColumn converts a raw string column to the narrowest representation
// every non-empty cell fits: int64, float64, bool, timestamp, then string.
// Empty cells become nulls.
func sniffColumn(name string, cells []string) *datavet.TableColumn {
	nonEmpty := 0
	for _, c := range cells {
		if c != "" {
			nonEmpty++
		}
	}

	parsers := []struct {
		kind  datavet.Kind
		parse func(string) (any, bool)
	}{
		{datavet.KindInt64, func(s string) (any, bool) {
			v, err := strconv.ParseInt(s, 10, 64)

			return v, err == nil
		}},
		{datavet.KindFloat64, func(s string) (any, bool) {
			v, err := strconv.ParseFloat(s, 64)

			return v, err == nil
		}},
		{datavet.KindBool, func(s string) (any, bool) {
			v, err := strconv.ParseBool(s)

			return v, err == nil
		}},
		{datavet.KindTimestamp, func(s string) (any, bool) {
			v, err := datavet.ParseTime(s)

			return v, err == nil
		}},
	}

next:
	for _, p := range parsers {
		if nonEmpty == 0 {
			break
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			if c == "" {
				continue
			}
			v, ok := p.parse(c)
			if !ok {
				continue next
			}
			values[i] = v
		}

		return datavet.NewColumn(name, datavet.ClosedType(p.kind), values)
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		if c != "" {
			values[i] = c
		}
	}

	return datavet.NewColumn(name, datavet.OpenType(), values)
}
