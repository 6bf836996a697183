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
	"strings"
	"time"
)

// Kind identifies the concrete scalar kind of a column value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindString
	KindBytes
	KindTimestamp
	KindDuration
	KindList
	KindMap
)

var kindNames = map[Kind]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindInt8:       "int8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindUint8:      "uint8",
	KindUint16:     "uint16",
	KindUint32:     "uint32",
	KindUint64:     "uint64",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindComplex64:  "complex64",
	KindComplex128: "complex128",
	KindString:     "string",
	KindBytes:      "bytes",
	KindTimestamp:  "timestamp",
	KindDuration:   "duration",
	KindList:       "list",
	KindMap:        "map",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// TypeDescriptor describes the declared type of a column: either a single
// closed scalar kind, or Open when the column may hold heterogeneous values.
type TypeDescriptor struct {
	kind Kind
	open bool
}

// OpenType returns the descriptor for a column with no single declared kind.
func OpenType() TypeDescriptor { return TypeDescriptor{open: true} }

// ClosedType returns the descriptor for a column restricted to kind k.
func ClosedType(k Kind) TypeDescriptor { return TypeDescriptor{kind: k} }

func (t TypeDescriptor) IsOpen() bool { return t.open }

// Kind returns the declared scalar kind. Only meaningful when !IsOpen.
func (t TypeDescriptor) Kind() Kind { return t.kind }

func (t TypeDescriptor) String() string {
	if t.open {
		return "open"
	}

	return t.kind.String()
}

// KindOf reports the concrete kind of an in-memory scalar value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64, int:
		return KindInt64
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case uint64, uint:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case complex64:
		return KindComplex64
	case complex128:
		return KindComplex128
	case string:
		return KindString
	case []byte:
		return KindBytes
	case time.Time:
		return KindTimestamp
	case time.Duration:
		return KindDuration
	case []any:
		return KindList
	case map[string]any:
		return KindMap
	}

	return KindNull
}

// exact width/precision names resolve before anything else.
var exactKinds = map[string]Kind{
	"int8":       KindInt8,
	"int16":      KindInt16,
	"int32":      KindInt32,
	"int64":      KindInt64,
	"uint8":      KindUint8,
	"uint16":     KindUint16,
	"uint32":     KindUint32,
	"uint64":     KindUint64,
	"float32":    KindFloat32,
	"float64":    KindFloat64,
	"complex64":  KindComplex64,
	"complex128": KindComplex128,
}

// named structured types resolve after exact numeric names.
var namedKinds = map[string][]Kind{
	"timestamp": {KindTimestamp},
	"datetime":  {KindTimestamp},
	"duration":  {KindDuration},
	"timedelta": {KindDuration},
}

// primitive fallbacks mirror the loose names callers use for whole families.
var fallbackKinds = map[string][]Kind{
	"none":    {KindNull},
	"null":    {KindNull},
	"bool":    {KindBool},
	"boolean": {KindBool},
	"int": {
		KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
	},
	"integer": {
		KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
	},
	"long":    {KindInt64, KindUint64},
	"float":   {KindFloat32, KindFloat64},
	"double":  {KindFloat64},
	"bytes":   {KindBytes},
	"complex": {KindComplex64, KindComplex128},
	"str":     {KindString},
	"string":  {KindString},
	"text":    {KindString},
	"list":    {KindList},
	"dict":    {KindMap},
	"map":     {KindMap},
	"mapping": {KindMap},
}

// ResolveKinds resolves a requested type name into the set of concrete kinds
// it denotes, checking in order: an exact width/precision numeric match, a
// named structured-type match, then the primitive fallbacks. Zero resolutions
// fail with ErrInvalidConfiguration.
func ResolveKinds(name string) ([]Kind, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if k, ok := exactKinds[lowered]; ok {
		return []Kind{k}, nil
	}
	if ks, ok := namedKinds[lowered]; ok {
		return ks, nil
	}
	if ks, ok := fallbackKinds[lowered]; ok {
		return ks, nil
	}

	return nil, fmt.Errorf("%w: unrecognized type name %q", ErrInvalidConfiguration, name)
}

// resolveKindSet resolves a list of type names into one membership set,
// accumulating everything that resolves and failing only if nothing does.
func resolveKindSet(names []string) (map[Kind]bool, error) {
	out := make(map[Kind]bool)
	for _, n := range names {
		ks, err := ResolveKinds(n)
		if err != nil {
			continue
		}
		for _, k := range ks {
			out[k] = true
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no recognized type name in %v", ErrInvalidConfiguration, names)
	}

	return out, nil
}
