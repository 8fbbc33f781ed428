package specification

import (
	"fmt"
	"time"
)

type (
	// FieldDef describes one readable field of T.
	FieldDef[T any] struct {
		Name string
		Kind Kind
		get  func(T) any
	}

	// Schema is the set of fields a predicate over T may reference.
	Schema[T any] struct {
		name   string
		fields map[string]FieldDef[T]
		order  []string
	}
)

func IntField[T any, N ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32](
	name string,
	get func(T) N,
) FieldDef[T] {
	return FieldDef[T]{Name: name, Kind: KindInt, get: func(e T) any { return int64(get(e)) }}
}

func FloatField[T any](name string, get func(T) float64) FieldDef[T] {
	return FieldDef[T]{Name: name, Kind: KindFloat, get: func(e T) any { return get(e) }}
}

func StringField[T any](name string, get func(T) string) FieldDef[T] {
	return FieldDef[T]{Name: name, Kind: KindString, get: func(e T) any { return get(e) }}
}

func BoolField[T any](name string, get func(T) bool) FieldDef[T] {
	return FieldDef[T]{Name: name, Kind: KindBool, get: func(e T) any { return get(e) }}
}

func TimeField[T any](name string, get func(T) time.Time) FieldDef[T] {
	return FieldDef[T]{Name: name, Kind: KindTime, get: func(e T) any { return get(e) }}
}

// DateField reads a calendar date. Values are truncated to UTC midnight.
func DateField[T any](name string, get func(T) time.Time) FieldDef[T] {
	return FieldDef[T]{Name: name, Kind: KindDate, get: func(e T) any { return DateOf(get(e)) }}
}

// DateOf returns midnight UTC of t's calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewSchema registers the given fields. Duplicate names are a programming
// error and panic.
func NewSchema[T any](name string, fields ...FieldDef[T]) *Schema[T] {
	s := &Schema[T]{
		name:   name,
		fields: make(map[string]FieldDef[T], len(fields)),
		order:  make([]string, 0, len(fields)),
	}

	for _, f := range fields {
		if _, dup := s.fields[f.Name]; dup {
			panic(fmt.Sprintf("specification: duplicate field %q in schema %q", f.Name, name))
		}

		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}

	return s
}

func (s *Schema[T]) Name() string { return s.name }

// Field looks up a field definition by name.
func (s *Schema[T]) Field(name string) (FieldDef[T], bool) {
	f, ok := s.fields[name]

	return f, ok
}

// Fields returns the field names in registration order.
func (s *Schema[T]) Fields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// Value reads a field from entity. It returns false for unknown fields.
func (s *Schema[T]) Value(entity T, name string) (any, bool) {
	f, ok := s.fields[name]
	if !ok {
		return nil, false
	}

	return f.get(entity), true
}
