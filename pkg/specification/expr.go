// Package specification provides composable predicates over a single entity
// type. A predicate is kept as an expression tree so it can be both compiled
// into a callable evaluator and translated into a native query by a store.
package specification

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"time"
)

type (
	// Operator identifies the kind of expression node.
	Operator string

	// Kind is the value type an expression produces.
	Kind uint8

	// Expr is a node of a predicate expression tree. The set of node types
	// is closed; consumers switch on the concrete type.
	Expr interface {
		Operator() Operator
		String() string
		expr()
	}

	// Param is the placeholder variable standing for the entity under test.
	// Two params denote the same variable only if they are the same pointer.
	Param struct {
		id   uint64
		name string
	}

	FieldExpr struct {
		Param *Param
		Name  string
	}

	ConstExpr struct {
		Value any
		Kind  Kind
	}

	CompareExpr struct {
		Op    Operator
		Left  Expr
		Right Expr
	}

	BitAndExpr struct {
		Left  Expr
		Right Expr
	}

	AndExpr struct {
		Left  Expr
		Right Expr
	}

	OrExpr struct {
		Left  Expr
		Right Expr
	}

	NotExpr struct {
		Operand Expr
	}
)

const (
	OpParam  Operator = "param"
	OpField  Operator = "field"
	OpConst  Operator = "const"
	OpEq     Operator = "eq"
	OpNotEq  Operator = "neq"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpBitAnd Operator = "bitand"
	OpAnd    Operator = "and"
	OpOr     Operator = "or"
	OpNot    Operator = "not"
)

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	// KindDate is a calendar day. Times compared with it are cut to their
	// UTC date first.
	KindDate
)

var paramSeq atomic.Uint64

var symbols = map[Operator]string{
	OpEq:     "==",
	OpNotEq:  "!=",
	OpLt:     "<",
	OpLte:    "<=",
	OpGt:     ">",
	OpGte:    ">=",
	OpBitAnd: "&",
	OpAnd:    "&&",
	OpOr:     "||",
	OpNot:    "!",
}

// Symbol returns the infix form of a comparison or connective operator.
func (o Operator) Symbol() string {
	if s, ok := symbols[o]; ok {
		return s
	}

	return string(o)
}

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	default:
		return "invalid"
	}
}

// NewParam allocates a fresh placeholder variable.
func NewParam(name string) *Param {
	return &Param{id: paramSeq.Add(1), name: name}
}

func (p *Param) ID() uint64         { return p.id }
func (p *Param) Name() string       { return p.name }
func (p *Param) Operator() Operator { return OpParam }
func (p *Param) String() string     { return fmt.Sprintf("%s#%d", p.name, p.id) }
func (p *Param) expr()              {}

// Field references a named field of the entity bound to p.
func (p *Param) Field(name string) FieldExpr {
	return FieldExpr{Param: p, Name: name}
}

func (f FieldExpr) Operator() Operator { return OpField }
func (f FieldExpr) String() string     { return fmt.Sprintf("%s.%s", f.Param, f.Name) }
func (f FieldExpr) expr()              {}

// Const captures a literal. Integers of any width, including named integer
// types, are normalized to int64 and floats to float64. Unsigned values
// beyond math.MaxInt64 are KindInvalid.
func Const(v any) ConstExpr {
	value, kind := normalize(v)

	return ConstExpr{Value: value, Kind: kind}
}

func (c ConstExpr) Operator() Operator { return OpConst }
func (c ConstExpr) expr()              {}

func (c ConstExpr) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func Eq(l, r Expr) CompareExpr    { return CompareExpr{Op: OpEq, Left: l, Right: r} }
func NotEq(l, r Expr) CompareExpr { return CompareExpr{Op: OpNotEq, Left: l, Right: r} }
func Lt(l, r Expr) CompareExpr    { return CompareExpr{Op: OpLt, Left: l, Right: r} }
func Lte(l, r Expr) CompareExpr   { return CompareExpr{Op: OpLte, Left: l, Right: r} }
func Gt(l, r Expr) CompareExpr    { return CompareExpr{Op: OpGt, Left: l, Right: r} }
func Gte(l, r Expr) CompareExpr   { return CompareExpr{Op: OpGte, Left: l, Right: r} }

func (c CompareExpr) Operator() Operator { return c.Op }
func (c CompareExpr) expr()              {}

func (c CompareExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op.Symbol(), c.Right)
}

func BitAnd(l, r Expr) BitAndExpr { return BitAndExpr{Left: l, Right: r} }

func (b BitAndExpr) Operator() Operator { return OpBitAnd }
func (b BitAndExpr) expr()              {}

func (b BitAndExpr) String() string {
	return fmt.Sprintf("(%s & %s)", b.Left, b.Right)
}

// AndAlso joins two boolean expressions; evaluation short-circuits.
func AndAlso(l, r Expr) AndExpr { return AndExpr{Left: l, Right: r} }

func (a AndExpr) Operator() Operator { return OpAnd }
func (a AndExpr) expr()              {}

func (a AndExpr) String() string {
	return fmt.Sprintf("(%s && %s)", a.Left, a.Right)
}

// OrElse joins two boolean expressions; evaluation short-circuits.
func OrElse(l, r Expr) OrExpr { return OrExpr{Left: l, Right: r} }

func (o OrExpr) Operator() Operator { return OpOr }
func (o OrExpr) expr()              {}

func (o OrExpr) String() string {
	return fmt.Sprintf("(%s || %s)", o.Left, o.Right)
}

func Negate(operand Expr) NotExpr { return NotExpr{Operand: operand} }

func (n NotExpr) Operator() Operator { return OpNot }
func (n NotExpr) expr()              {}

func (n NotExpr) String() string {
	return "!" + n.Operand.String()
}

// Predicate is a boolean function of one entity: the body reads the entity
// only through Param.
type Predicate struct {
	Param *Param
	Body  Expr
}

// NewPredicate binds body to param.
func NewPredicate(param *Param, body Expr) *Predicate {
	return &Predicate{Param: param, Body: body}
}

// Lambda allocates a fresh param named name and builds the body from it.
func Lambda(name string, body func(p *Param) Expr) *Predicate {
	p := NewParam(name)

	return NewPredicate(p, body(p))
}

func (p *Predicate) String() string {
	var b strings.Builder

	b.WriteString(p.Param.String())
	b.WriteString(" => ")
	b.WriteString(p.Body.String())

	return b.String()
}

func normalize(v any) (any, Kind) {
	switch t := v.(type) {
	case nil:
		return nil, KindInvalid
	case time.Time:
		return t, KindTime
	case string:
		return t, KindString
	case bool:
		return t, KindBool
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return v, KindInvalid
		}

		return int64(u), KindInt
	case reflect.Float32, reflect.Float64:
		return rv.Float(), KindFloat
	case reflect.String:
		return rv.String(), KindString
	case reflect.Bool:
		return rv.Bool(), KindBool
	default:
		return v, KindInvalid
	}
}
