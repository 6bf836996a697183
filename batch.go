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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/murmur3"
)

// loadTimeLayout renders batch load times with microsecond precision in UTC.
const loadTimeLayout = "20060102T150405.000000Z"

// DefaultFingerprintRows bounds how large a dataset still gets a content
// fingerprint in its markers. Hashing is skipped above the bound.
const DefaultFingerprintRows = 100_000

// BatchSpec records where a batch came from and how it was read.
type BatchSpec struct {
	Path    string            `json:"path,omitempty"`
	Reader  string            `json:"reader,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// BatchMarkers identify one loaded batch: when it was loaded, a unique id,
// and, for small datasets, a content fingerprint.
type BatchMarkers struct {
	LoadTime    string `json:"load_time"`
	BatchID     string `json:"batch_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Batch couples a dataset with its BatchSpec and identifying markers.
type Batch struct {
	Data    Dataset
	Spec    BatchSpec
	Markers BatchMarkers
}

// nowUTC is swapped out by tests that need deterministic markers.
var nowUTC = func() time.Time { return time.Now().UTC() }

// NewBatch stamps markers onto a loaded dataset.
func NewBatch(data Dataset, spec BatchSpec) *Batch {
	b := &Batch{
		Data: data,
		Spec: spec,
		Markers: BatchMarkers{
			LoadTime: nowUTC().Format(loadTimeLayout),
			BatchID:  uuid.New().String(),
		},
	}
	if data != nil && data.RowCount() <= DefaultFingerprintRows {
		b.Markers.Fingerprint = fingerprintDataset(data)
	}

	return b
}

// fingerprintDataset hashes column names and every rendered cell in column
// order so identical content yields identical fingerprints regardless of
// load time.
func fingerprintDataset(ds Dataset) string {
	h := murmur3.New128()
	for _, name := range ds.ColumnNames() {
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})

		col, err := ds.Column(name)
		if err != nil {
			continue
		}
		for _, v := range col.Values() {
			if v == nil {
				_, _ = h.Write([]byte{0xff})

				continue
			}
			_, _ = h.Write([]byte(renderScalar(v)))
			_, _ = h.Write([]byte{0})
		}
	}

	h1, h2 := h.Sum128()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], h1)
	binary.BigEndian.PutUint64(buf[8:], h2)

	return fmt.Sprintf("%x", buf)
}
