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

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// DatasetFromArrow converts one Arrow record batch into an evaluable table.
// Column types carry over as closed declared types; nulls become untyped
// nils. The record is fully copied and may be released afterwards.
func DatasetFromArrow(rec arrow.Record) (*Table, error) {
	schema := rec.Schema()
	cols := make([]*TableColumn, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		field := schema.Field(i)
		values, kind, err := arrowColumnValues(rec.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", field.Name, err)
		}
		cols[i] = NewColumn(field.Name, ClosedType(kind), values)
	}

	return NewTable(cols...), nil
}

func arrowColumnValues(arr arrow.Array) ([]any, Kind, error) {
	n := arr.Len()
	values := make([]any, n)

	fill := func(kind Kind, get func(int) any) ([]any, Kind, error) {
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				continue
			}
			values[i] = get(i)
		}

		return values, kind, nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return fill(KindBool, func(i int) any { return a.Value(i) })
	case *array.Int8:
		return fill(KindInt8, func(i int) any { return a.Value(i) })
	case *array.Int16:
		return fill(KindInt16, func(i int) any { return a.Value(i) })
	case *array.Int32:
		return fill(KindInt32, func(i int) any { return a.Value(i) })
	case *array.Int64:
		return fill(KindInt64, func(i int) any { return a.Value(i) })
	case *array.Uint8:
		return fill(KindUint8, func(i int) any { return a.Value(i) })
	case *array.Uint16:
		return fill(KindUint16, func(i int) any { return a.Value(i) })
	case *array.Uint32:
		return fill(KindUint32, func(i int) any { return a.Value(i) })
	case *array.Uint64:
		return fill(KindUint64, func(i int) any { return a.Value(i) })
	case *array.Float32:
		return fill(KindFloat32, func(i int) any { return a.Value(i) })
	case *array.Float64:
		return fill(KindFloat64, func(i int) any { return a.Value(i) })
	case *array.String:
		return fill(KindString, func(i int) any { return a.Value(i) })
	case *array.LargeString:
		return fill(KindString, func(i int) any { return a.Value(i) })
	case *array.Binary:
		return fill(KindBytes, func(i int) any { return append([]byte(nil), a.Value(i)...) })
	case *array.Date32:
		return fill(KindTimestamp, func(i int) any { return a.Value(i).ToTime().UTC() })
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit

		return fill(KindTimestamp, func(i int) any { return a.Value(i).ToTime(unit).UTC() })
	default:
		return nil, KindNull, fmt.Errorf("%w: unsupported column type %s", ErrTypeMismatch, arr.DataType())
	}
}
