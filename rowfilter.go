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
	"strconv"
	"strings"
	"unicode"
)

// ParserKind selects the grammar a row condition is parsed with.
type ParserKind string

const (
	// ParserDatavet is the engine's own condition grammar: comparison
	// predicates over column references combined with and/or/not.
	ParserDatavet ParserKind = "datavet"
)

// Operation is an enum for the operation a row-filter expression performs.
type Operation int

const (
	OpEQ Operation = iota
	OpNEQ
	OpLT
	OpLTEQ
	OpGT
	OpGTEQ
	OpIsNull
	OpNotNull
	OpAnd
	OpOr
	OpNot
)

var opNames = map[Operation]string{
	OpEQ: "==", OpNEQ: "!=", OpLT: "<", OpLTEQ: "<=", OpGT: ">", OpGTEQ: ">=",
	OpIsNull: "is null", OpNotNull: "is not null",
	OpAnd: "and", OpOr: "or", OpNot: "not",
}

func (op Operation) String() string { return opNames[op] }

// Negate returns the inverse operation for a given op.
func (op Operation) Negate() Operation {
	switch op {
	case OpEQ:
		return OpNEQ
	case OpNEQ:
		return OpEQ
	case OpLT:
		return OpGTEQ
	case OpLTEQ:
		return OpGT
	case OpGT:
		return OpLTEQ
	case OpGTEQ:
		return OpLT
	case OpIsNull:
		return OpNotNull
	case OpNotNull:
		return OpIsNull
	default:
		panic("no negation for operation " + op.String())
	}
}

// RowExpr is a boolean expression evaluated against a single row. The get
// callback resolves a column reference to that row's value.
type RowExpr interface {
	fmt.Stringer
	Op() Operation
	Eval(get func(name string) (any, bool)) (bool, error)
}

// ComparisonExpr compares a column reference against a literal value. A null
// column value never satisfies a comparison.
type ComparisonExpr struct {
	Column string
	Oper   Operation
	Value  any
}

func (c ComparisonExpr) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Oper, c.Value)
}

func (c ComparisonExpr) Op() Operation { return c.Oper }

func (c ComparisonExpr) Eval(get func(string) (any, bool)) (bool, error) {
	v, ok := get(c.Column)
	if !ok {
		return false, fmt.Errorf("%w: row condition references unknown column %q",
			ErrInvalidConfiguration, c.Column)
	}
	if v == nil {
		return false, nil
	}

	if c.Oper == OpEQ {
		return scalarEqual(v, c.Value), nil
	}
	if c.Oper == OpNEQ {
		return !scalarEqual(v, c.Value), nil
	}

	cmp, err := compareScalars(v, c.Value)
	if err != nil {
		return false, err
	}
	switch c.Oper {
	case OpLT:
		return cmp < 0, nil
	case OpLTEQ:
		return cmp <= 0, nil
	case OpGT:
		return cmp > 0, nil
	case OpGTEQ:
		return cmp >= 0, nil
	}

	return false, fmt.Errorf("%w: invalid comparison operation %s", ErrInvalidConfiguration, c.Oper)
}

// NullExpr tests a column reference for presence or absence.
type NullExpr struct {
	Column string
	Oper   Operation
}

func (n NullExpr) String() string { return n.Column + " " + n.Oper.String() }
func (n NullExpr) Op() Operation  { return n.Oper }

func (n NullExpr) Eval(get func(string) (any, bool)) (bool, error) {
	v, ok := get(n.Column)
	if !ok {
		return false, fmt.Errorf("%w: row condition references unknown column %q",
			ErrInvalidConfiguration, n.Column)
	}
	if n.Oper == OpIsNull {
		return v == nil, nil
	}

	return v != nil, nil
}

// NotExpr negates its child.
type NotExpr struct{ Child RowExpr }

func (n NotExpr) String() string { return "not (" + n.Child.String() + ")" }
func (NotExpr) Op() Operation    { return OpNot }

func (n NotExpr) Eval(get func(string) (any, bool)) (bool, error) {
	ok, err := n.Child.Eval(get)

	return !ok, err
}

// BinaryExpr combines two child expressions with and/or.
type BinaryExpr struct {
	Oper        Operation
	Left, Right RowExpr
}

func (b BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Oper.String() + " " + b.Right.String() + ")"
}

func (b BinaryExpr) Op() Operation { return b.Oper }

func (b BinaryExpr) Eval(get func(string) (any, bool)) (bool, error) {
	l, err := b.Left.Eval(get)
	if err != nil {
		return false, err
	}
	if b.Oper == OpAnd && !l {
		return false, nil
	}
	if b.Oper == OpOr && l {
		return true, nil
	}

	return b.Right.Eval(get)
}

// ParseCondition parses a row condition under the requested parser kind. An
// unsupported parser kind fails with ErrInvalidConfiguration, as does an
// unparseable condition.
func ParseCondition(condition string, parser ParserKind) (RowExpr, error) {
	if parser != ParserDatavet {
		return nil, fmt.Errorf("%w: condition_parser is required when setting a row condition and must be %q, got %q",
			ErrInvalidConfiguration, ParserDatavet, parser)
	}

	p := &condParser{toks: tokenize(condition)}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
	}
	if !p.done() {
		return nil, fmt.Errorf("%w: unexpected token %q in row condition", ErrInvalidConfiguration, p.peek())
	}

	return expr, nil
}

type condParser struct {
	toks []string
	pos  int
}

func (p *condParser) done() bool { return p.pos >= len(p.toks) }

func (p *condParser) peek() string {
	if p.done() {
		return ""
	}

	return p.toks[p.pos]
}

func (p *condParser) next() string {
	t := p.peek()
	p.pos++

	return t
}

func (p *condParser) parseOr() (RowExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Oper: OpOr, Left: left, Right: right}
	}

	return left, nil
}

func (p *condParser) parseAnd() (RowExpr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Oper: OpAnd, Left: left, Right: right}
	}

	return left, nil
}

func (p *condParser) parseUnary() (RowExpr, error) {
	switch {
	case strings.EqualFold(p.peek(), "not"):
		p.next()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return NotExpr{Child: child}, nil
	case p.peek() == "(":
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}

		return expr, nil
	}

	return p.parsePredicate()
}

func (p *condParser) parsePredicate() (RowExpr, error) {
	col := p.next()
	if col == "" || !isIdent(col) {
		return nil, fmt.Errorf("expected a column reference, got %q", col)
	}

	op := p.next()
	if strings.EqualFold(op, "is") {
		if strings.EqualFold(p.peek(), "not") {
			p.next()
			if !strings.EqualFold(p.next(), "null") {
				return nil, fmt.Errorf("expected 'null' after 'is not'")
			}

			return NullExpr{Column: col, Oper: OpNotNull}, nil
		}
		if !strings.EqualFold(p.next(), "null") {
			return nil, fmt.Errorf("expected 'null' after 'is'")
		}

		return NullExpr{Column: col, Oper: OpIsNull}, nil
	}

	var oper Operation
	switch op {
	case "==", "=":
		oper = OpEQ
	case "!=", "<>":
		oper = OpNEQ
	case "<":
		oper = OpLT
	case "<=":
		oper = OpLTEQ
	case ">":
		oper = OpGT
	case ">=":
		oper = OpGTEQ
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}

	lit, err := parseLiteralToken(p.next())
	if err != nil {
		return nil, err
	}

	return ComparisonExpr{Column: col, Oper: oper, Value: lit}, nil
}

func parseLiteralToken(tok string) (any, error) {
	switch {
	case tok == "":
		return nil, fmt.Errorf("missing literal value")
	case strings.HasPrefix(tok, `"`) || strings.HasPrefix(tok, "'"):
		if len(tok) < 2 || tok[len(tok)-1] != tok[0] {
			return nil, fmt.Errorf("unterminated string literal %s", tok)
		}

		return tok[1 : len(tok)-1], nil
	case strings.EqualFold(tok, "true"):
		return true, nil
	case strings.EqualFold(tok, "false"):
		return false, nil
	case strings.EqualFold(tok, "null") || strings.EqualFold(tok, "none"):
		return nil, nil
	}

	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, nil
	}

	return nil, fmt.Errorf("cannot parse literal %q", tok)
}

func isIdent(s string) bool {
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' || (i > 0 && unicode.IsDigit(r)) {
			continue
		}

		return false
	}

	return len(s) > 0
}

func tokenize(s string) []string {
	var (
		toks  []string
		i     = 0
		runes = []rune(s)
	)
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')':
			toks = append(toks, string(r))
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j < len(runes) {
				j++
			}
			toks = append(toks, string(runes[i:j]))
			i = j
		case strings.ContainsRune("<>=!", r):
			j := i + 1
			for j < len(runes) && strings.ContainsRune("<>=!", runes[j]) {
				j++
			}
			toks = append(toks, string(runes[i:j]))
			i = j
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) &&
				!strings.ContainsRune("()<>=!'\"", runes[j]) {
				j++
			}
			toks = append(toks, string(runes[i:j]))
			i = j
		}
	}

	return toks
}
