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

package datavet_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datavet/datavet-go"
)

func TestNewBatchMarkers(t *testing.T) {
	ds := singleColumnTable(t, "v", int64(1), int64(2))
	spec := datavet.BatchSpec{Path: "file:///tmp/orders.csv", Reader: "csv"}

	before := time.Now().UTC()
	b := datavet.NewBatch(ds, spec)
	after := time.Now().UTC()

	assert.Equal(t, spec, b.Spec)

	loadTime, err := time.Parse("20060102T150405.000000Z", b.Markers.LoadTime)
	require.NoError(t, err)
	assert.False(t, loadTime.Before(before.Truncate(time.Microsecond)))
	assert.False(t, loadTime.After(after))

	_, err = uuid.Parse(b.Markers.BatchID)
	assert.NoError(t, err)
	assert.NotEmpty(t, b.Markers.Fingerprint)
	assert.Len(t, b.Markers.Fingerprint, 32)
}

func TestBatchIDsAreUnique(t *testing.T) {
	ds := singleColumnTable(t, "v", int64(1))
	first := datavet.NewBatch(ds, datavet.BatchSpec{})
	second := datavet.NewBatch(ds, datavet.BatchSpec{})

	assert.NotEqual(t, first.Markers.BatchID, second.Markers.BatchID)
}

func TestBatchFingerprintTracksContent(t *testing.T) {
	same := datavet.NewBatch(singleColumnTable(t, "v", int64(1), nil, "x"), datavet.BatchSpec{})
	again := datavet.NewBatch(singleColumnTable(t, "v", int64(1), nil, "x"), datavet.BatchSpec{})
	assert.Equal(t, same.Markers.Fingerprint, again.Markers.Fingerprint)

	changed := datavet.NewBatch(singleColumnTable(t, "v", int64(1), nil, "y"), datavet.BatchSpec{})
	assert.NotEqual(t, same.Markers.Fingerprint, changed.Markers.Fingerprint)

	renamed := datavet.NewBatch(singleColumnTable(t, "w", int64(1), nil, "x"), datavet.BatchSpec{})
	assert.NotEqual(t, same.Markers.Fingerprint, renamed.Markers.Fingerprint)
}

func TestBatchFingerprintDistinguishesNullFromEmpty(t *testing.T) {
	withNull := datavet.NewBatch(singleColumnTable(t, "v", nil), datavet.BatchSpec{})
	withEmpty := datavet.NewBatch(singleColumnTable(t, "v", ""), datavet.BatchSpec{})

	assert.NotEqual(t, withNull.Markers.Fingerprint, withEmpty.Markers.Fingerprint)
}

func TestNewBatchNilDataset(t *testing.T) {
	b := datavet.NewBatch(nil, datavet.BatchSpec{Reader: "csv"})

	assert.Empty(t, b.Markers.Fingerprint)
	assert.NotEmpty(t, b.Markers.BatchID)
}
