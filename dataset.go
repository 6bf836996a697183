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

import "fmt"

// Column is an ordered sequence of nullable scalar values owned by a Dataset.
type Column interface {
	Name() string
	Len() int
	// IsNull reports, per position, whether the value is missing.
	IsNull() []bool
	// Values returns the scalar values; missing positions hold nil.
	Values() []any
	// DeclaredType is the column's declared type, which determines whether a
	// type-check assertion can take the aggregate path.
	DeclaredType() TypeDescriptor
}

// Dataset is a columnar table with named typed columns sharing one stable row
// index. It is read-only for the duration of evaluation.
type Dataset interface {
	ColumnNames() []string
	Column(name string) (Column, error)
	RowCount() int
	// Index returns the stable row index. It is dense 0..N-1 for a freshly
	// loaded dataset and is reset to dense again by Filter.
	Index() []int
	// Filter evaluates a row condition and returns the reduced view. The row
	// index of the result is reset to 0..N-1: index-based evidence reported
	// after filtering refers to the filtered position, not the original one.
	Filter(condition string, parser ParserKind) (Dataset, error)
}

// TableColumn is the in-memory Column implementation.
type TableColumn struct {
	name   string
	typ    TypeDescriptor
	values []any
}

// NewColumn creates a column with an explicit declared type. Missing values
// are represented by nil entries.
func NewColumn(name string, typ TypeDescriptor, values []any) *TableColumn {
	return &TableColumn{name: name, typ: typ, values: values}
}

// ColumnOf creates a column inferring the declared type from the values: a
// single non-null kind yields a closed type, mixed kinds yield an open one.
func ColumnOf(name string, values ...any) *TableColumn {
	var (
		kind Kind
		seen bool
		open bool
	)
	for _, v := range values {
		if v == nil {
			continue
		}
		k := KindOf(v)
		if !seen {
			kind, seen = k, true
		} else if k != kind {
			open = true

			break
		}
	}

	typ := OpenType()
	if seen && !open {
		typ = ClosedType(kind)
	}

	return &TableColumn{name: name, typ: typ, values: values}
}

func (c *TableColumn) Name() string                 { return c.name }
func (c *TableColumn) Len() int                     { return len(c.values) }
func (c *TableColumn) Values() []any                { return c.values }
func (c *TableColumn) DeclaredType() TypeDescriptor { return c.typ }

func (c *TableColumn) IsNull() []bool {
	nulls := make([]bool, len(c.values))
	for i, v := range c.values {
		nulls[i] = v == nil
	}

	return nulls
}

// Table is the in-memory Dataset implementation.
type Table struct {
	columns []*TableColumn
	byName  map[string]*TableColumn
	index   []int
}

// NewTable creates a table from columns. All columns must share one length;
// violation panics since it indicates a construction bug, not bad data.
func NewTable(columns ...*TableColumn) *Table {
	t := &Table{columns: columns, byName: make(map[string]*TableColumn, len(columns))}
	n := -1
	for _, c := range columns {
		if n == -1 {
			n = c.Len()
		} else if c.Len() != n {
			panic(fmt.Errorf("%w: column %q has length %d, want %d",
				ErrInvalidConfiguration, c.Name(), c.Len(), n))
		}
		t.byName[c.name] = c
	}
	if n < 0 {
		n = 0
	}

	t.index = make([]int, n)
	for i := range t.index {
		t.index[i] = i
	}

	return t
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}

	return names
}

func (t *Table) Column(name string) (Column, error) {
	c, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: no column named %q", ErrInvalidConfiguration, name)
	}

	return c, nil
}

func (t *Table) RowCount() int {
	if len(t.columns) == 0 {
		return 0
	}

	return t.columns[0].Len()
}

func (t *Table) Index() []int { return t.index }

func (t *Table) Filter(condition string, parser ParserKind) (Dataset, error) {
	expr, err := ParseCondition(condition, parser)
	if err != nil {
		return nil, err
	}

	keep := make([]int, 0, t.RowCount())
	for row := 0; row < t.RowCount(); row++ {
		ok, err := expr.Eval(t.rowAccessor(row))
		if err != nil {
			return nil, err
		}
		if ok {
			keep = append(keep, row)
		}
	}

	cols := make([]*TableColumn, len(t.columns))
	for i, c := range t.columns {
		vals := make([]any, len(keep))
		for j, row := range keep {
			vals[j] = c.values[row]
		}
		cols[i] = NewColumn(c.name, c.typ, vals)
	}

	// NewTable resets the index to dense 0..N-1, which is the observable
	// post-filter behavior evidence indices rely on.
	return NewTable(cols...), nil
}

func (t *Table) rowAccessor(row int) func(name string) (any, bool) {
	return func(name string) (any, bool) {
		c, ok := t.byName[name]
		if !ok {
			return nil, false
		}

		return c.values[row], true
	}
}
