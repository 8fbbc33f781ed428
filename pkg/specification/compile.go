package specification

import (
	"cmp"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnboundParameter   = errors.New("expression references a parameter it is not bound to")
	ErrUnknownField       = errors.New("unknown field")
	ErrTypeMismatch       = errors.New("operand type mismatch")
	ErrUnsupportedLiteral = errors.New("unsupported literal type")
	ErrNotBoolean         = errors.New("expression is not boolean")
)

// Evaluator is a compiled predicate.
type Evaluator[T any] func(entity T) bool

type compiler[T any] struct {
	schema *Schema[T]
	param  *Param
}

// Compile type-checks pred against schema and turns it into a closure tree.
// A successfully compiled evaluator cannot fail at evaluation time.
func Compile[T any](schema *Schema[T], pred *Predicate) (Evaluator[T], error) {
	if schema == nil || pred == nil || pred.Param == nil || pred.Body == nil {
		return nil, fmt.Errorf("%w: incomplete predicate", ErrNotBoolean)
	}

	c := compiler[T]{schema: schema, param: pred.Param}

	fn, err := c.boolean(pred.Body)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", pred, err)
	}

	return Evaluator[T](fn), nil
}

func (c compiler[T]) boolean(expr Expr) (func(T) bool, error) {
	switch e := expr.(type) {
	case AndExpr:
		l, r, err := c.booleans(e.Left, e.Right)
		if err != nil {
			return nil, err
		}

		return func(v T) bool { return l(v) && r(v) }, nil

	case OrExpr:
		l, r, err := c.booleans(e.Left, e.Right)
		if err != nil {
			return nil, err
		}

		return func(v T) bool { return l(v) || r(v) }, nil

	case NotExpr:
		operand, err := c.boolean(e.Operand)
		if err != nil {
			return nil, err
		}

		return func(v T) bool { return !operand(v) }, nil

	case CompareExpr:
		return c.compare(e)

	case ConstExpr, FieldExpr:
		get, kind, err := c.value(e)
		if err != nil {
			return nil, err
		}

		if kind != KindBool {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotBoolean, e, kind)
		}

		return func(v T) bool { return get(v).(bool) }, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotBoolean, expr)
}

func (c compiler[T]) booleans(left, right Expr) (func(T) bool, func(T) bool, error) {
	l, err := c.boolean(left)
	if err != nil {
		return nil, nil, err
	}

	r, err := c.boolean(right)
	if err != nil {
		return nil, nil, err
	}

	return l, r, nil
}

func (c compiler[T]) value(expr Expr) (func(T) any, Kind, error) {
	switch e := expr.(type) {
	case ConstExpr:
		if e.Kind == KindInvalid {
			return nil, KindInvalid, fmt.Errorf("%w: %T", ErrUnsupportedLiteral, e.Value)
		}

		value := e.Value

		return func(T) any { return value }, e.Kind, nil

	case FieldExpr:
		if e.Param != c.param {
			return nil, KindInvalid, fmt.Errorf("%w: %s (bound to %s)", ErrUnboundParameter, e, c.param)
		}

		def, ok := c.schema.Field(e.Name)
		if !ok {
			return nil, KindInvalid, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.schema.Name(), e.Name)
		}

		return def.get, def.Kind, nil

	case BitAndExpr:
		l, lk, err := c.value(e.Left)
		if err != nil {
			return nil, KindInvalid, err
		}

		r, rk, err := c.value(e.Right)
		if err != nil {
			return nil, KindInvalid, err
		}

		if lk != KindInt || rk != KindInt {
			return nil, KindInvalid, fmt.Errorf("%w: %s needs int operands, got %s and %s", ErrTypeMismatch, e, lk, rk)
		}

		return func(v T) any { return l(v).(int64) & r(v).(int64) }, KindInt, nil

	case *Param:
		return nil, KindInvalid, fmt.Errorf("%w: bare parameter %s used as a value", ErrTypeMismatch, e)
	}

	fn, err := c.boolean(expr)
	if err != nil {
		return nil, KindInvalid, err
	}

	return func(v T) any { return fn(v) }, KindBool, nil
}

func (c compiler[T]) compare(e CompareExpr) (func(T) bool, error) {
	l, lk, err := c.value(e.Left)
	if err != nil {
		return nil, err
	}

	r, rk, err := c.value(e.Right)
	if err != nil {
		return nil, err
	}

	l, lk, r, rk = asDates(l, lk, r, rk)

	if lk != rk {
		return nil, fmt.Errorf("%w: %s compares %s with %s", ErrTypeMismatch, e, lk, rk)
	}

	order, err := comparator(lk, e.Op)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, e)
	}

	var test func(int) bool

	switch e.Op {
	case OpEq:
		test = func(n int) bool { return n == 0 }
	case OpNotEq:
		test = func(n int) bool { return n != 0 }
	case OpLt:
		test = func(n int) bool { return n < 0 }
	case OpLte:
		test = func(n int) bool { return n <= 0 }
	case OpGt:
		test = func(n int) bool { return n > 0 }
	case OpGte:
		test = func(n int) bool { return n >= 0 }
	default:
		return nil, fmt.Errorf("%w: unknown comparison %q", ErrTypeMismatch, e.Op)
	}

	return func(v T) bool { return test(order(l(v), r(v))) }, nil
}

// asDates cuts the time side of a date/time comparison down to its date.
func asDates[T any](l func(T) any, lk Kind, r func(T) any, rk Kind) (func(T) any, Kind, func(T) any, Kind) {
	switch {
	case lk == KindDate && rk == KindTime:
		return l, KindDate, truncated(r), KindDate
	case lk == KindTime && rk == KindDate:
		return truncated(l), KindDate, r, KindDate
	}

	return l, lk, r, rk
}

func truncated[T any](get func(T) any) func(T) any {
	return func(v T) any { return DateOf(get(v).(time.Time)) }
}

func comparator(kind Kind, op Operator) (func(a, b any) int, error) {
	switch kind {
	case KindInt:
		return func(a, b any) int { return cmp.Compare(a.(int64), b.(int64)) }, nil
	case KindFloat:
		return func(a, b any) int { return cmp.Compare(a.(float64), b.(float64)) }, nil
	case KindString:
		return func(a, b any) int { return cmp.Compare(a.(string), b.(string)) }, nil
	case KindTime, KindDate:
		return func(a, b any) int { return a.(time.Time).Compare(b.(time.Time)) }, nil
	case KindBool:
		if op != OpEq && op != OpNotEq {
			return nil, fmt.Errorf("%w: booleans only support equality", ErrTypeMismatch)
		}

		return func(a, b any) int {
			if a.(bool) == b.(bool) {
				return 0
			}

			return 1
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, kind)
}
