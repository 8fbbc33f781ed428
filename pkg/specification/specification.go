package specification

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
)

var (
	ErrNilSpecification = errors.New("specification must not be nil")
	ErrSchemaMismatch   = errors.New("specifications are defined over different schemas")
)

type (
	// Specification is a named, reusable predicate over T. Predicate exposes
	// the expression tree for translation; IsSatisfiedBy evaluates it in
	// process.
	Specification[T any] interface {
		Name() string
		Schema() *Schema[T]
		Predicate() *Predicate
		Evaluator() (Evaluator[T], error)
		IsSatisfiedBy(entity T) bool
	}

	// Spec is the concrete Specification. Its predicate is fixed at
	// construction; the compiled evaluator is materialized on first use.
	Spec[T any] struct {
		name      string
		schema    *Schema[T]
		predicate *Predicate
		compiled  atomic.Pointer[Evaluator[T]]
	}
)

// New wraps predicate as a specification named name.
func New[T any](name string, schema *Schema[T], predicate *Predicate) *Spec[T] {
	if schema == nil {
		panic(fmt.Sprintf("specification %q: nil schema", name))
	}

	if predicate == nil || predicate.Param == nil || predicate.Body == nil {
		panic(fmt.Sprintf("specification %q: incomplete predicate", name))
	}

	return &Spec[T]{name: name, schema: schema, predicate: predicate}
}

func (s *Spec[T]) Name() string          { return s.name }
func (s *Spec[T]) Schema() *Schema[T]    { return s.schema }
func (s *Spec[T]) Predicate() *Predicate { return s.predicate }
func (s *Spec[T]) String() string        { return s.name + ": " + s.predicate.String() }

// Evaluator returns the compiled predicate, compiling it on first use.
// Concurrent first calls may each compile; one result is kept and the others
// are dropped. Compilation errors are returned and never cached.
func (s *Spec[T]) Evaluator() (Evaluator[T], error) {
	if fn := s.compiled.Load(); fn != nil {
		return *fn, nil
	}

	fn, err := Compile(s.schema, s.predicate)
	if err != nil {
		return nil, fmt.Errorf("specification %q: %w", s.name, err)
	}

	if s.compiled.CompareAndSwap(nil, &fn) {
		return fn, nil
	}

	return *s.compiled.Load(), nil
}

// IsSatisfiedBy reports whether entity satisfies the specification. It panics
// if the predicate does not type-check against the schema; use Evaluator to
// get the error instead.
func (s *Spec[T]) IsSatisfiedBy(entity T) bool {
	fn, err := s.Evaluator()
	if err != nil {
		panic(err)
	}

	return fn(entity)
}

func (s *Spec[T]) And(other Specification[T]) *Spec[T] { return And[T](s, other) }
func (s *Spec[T]) Or(other Specification[T]) *Spec[T]  { return Or[T](s, other) }
func (s *Spec[T]) Not() *Spec[T]                       { return Not[T](s) }

// And builds a specification satisfied when both operands are.
func And[T any](left, right Specification[T]) *Spec[T] {
	return combine("and", left, right, func(l, r Expr) Expr { return AndAlso(l, r) })
}

// Or builds a specification satisfied when either operand is.
func Or[T any](left, right Specification[T]) *Spec[T] {
	return combine("or", left, right, func(l, r Expr) Expr { return OrElse(l, r) })
}

// Not negates spec. The operand keeps its own param.
func Not[T any](spec Specification[T]) *Spec[T] {
	mustPresent(spec, "not")

	pred := spec.Predicate()

	return New(fmt.Sprintf("not(%s)", spec.Name()), spec.Schema(), NewPredicate(pred.Param, Negate(pred.Body)))
}

func combine[T any](op string, left, right Specification[T], join func(l, r Expr) Expr) *Spec[T] {
	mustPresent(left, op)
	mustPresent(right, op)

	if left.Schema() != right.Schema() {
		panic(fmt.Errorf("%w: %s(%s, %s)", ErrSchemaMismatch, op, left.Name(), right.Name()))
	}

	param, l, r := Unify(left.Predicate(), right.Predicate())

	return New(
		fmt.Sprintf("%s(%s, %s)", op, left.Name(), right.Name()),
		left.Schema(),
		NewPredicate(param, join(l, r)),
	)
}

func mustPresent[T any](spec Specification[T], op string) {
	if IsNil(spec) {
		panic(fmt.Errorf("%w: %s", ErrNilSpecification, op))
	}
}

// IsNil reports whether spec is nil or a typed nil pointer.
func IsNil[T any](spec Specification[T]) bool {
	if spec == nil {
		return true
	}

	v := reflect.ValueOf(spec)

	return v.Kind() == reflect.Pointer && v.IsNil()
}
