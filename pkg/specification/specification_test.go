package specification_test

import (
	"sync"
	"testing"
	"time"

	"github.com/architeacher/specifications/pkg/specification"
	"github.com/stretchr/testify/require"
)

type member struct {
	Name     string
	Level    int
	Joined   time.Time
	Birthday time.Time
	Flags    uint8
	Active   bool
}

var memberSchema = specification.NewSchema("member",
	specification.StringField("name", func(m member) string { return m.Name }),
	specification.IntField("level", func(m member) int { return m.Level }),
	specification.TimeField("joined", func(m member) time.Time { return m.Joined }),
	specification.DateField("birthday", func(m member) time.Time { return m.Birthday }),
	specification.IntField("flags", func(m member) uint8 { return m.Flags }),
	specification.BoolField("active", func(m member) bool { return m.Active }),
)

func levelAtLeast(n int) *specification.Spec[member] {
	return specification.New("levelAtLeast", memberSchema, specification.Lambda("m", func(m *specification.Param) specification.Expr {
		return specification.Gte(m.Field("level"), specification.Const(n))
	}))
}

func joinedBy(cutoff time.Time) *specification.Spec[member] {
	return specification.New("joinedBy", memberSchema, specification.Lambda("m", func(m *specification.Param) specification.Expr {
		return specification.Lte(m.Field("joined"), specification.Const(cutoff))
	}))
}

func hasFlag(mask uint8) *specification.Spec[member] {
	return specification.New("hasFlag", memberSchema, specification.Lambda("m", func(m *specification.Param) specification.Expr {
		return specification.NotEq(
			specification.BitAnd(specification.Const(mask), m.Field("flags")),
			specification.Const(0),
		)
	}))
}

func isActive() *specification.Spec[member] {
	return specification.New("isActive", memberSchema, specification.Lambda("m", func(m *specification.Param) specification.Expr {
		return m.Field("active")
	}))
}

func members() []member {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	return []member{
		{Name: "ada", Level: 1, Joined: base.AddDate(-2, 0, 0), Flags: 0b01, Active: true},
		{Name: "bob", Level: 5, Joined: base, Flags: 0b10, Active: false},
		{Name: "cyd", Level: 9, Joined: base.AddDate(0, 0, 1), Flags: 0b11, Active: true},
		{Name: "dee", Level: 3, Joined: base.AddDate(1, 0, 0), Flags: 0, Active: false},
	}
}

func TestLeafSpecifications(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		spec     *specification.Spec[member]
		expected []string
	}{
		{
			name:     "integer comparison",
			spec:     levelAtLeast(5),
			expected: []string{"bob", "cyd"},
		},
		{
			name:     "time comparison is inclusive at the cutoff",
			spec:     joinedBy(cutoff),
			expected: []string{"ada", "bob"},
		},
		{
			name:     "bitmask intersection",
			spec:     hasFlag(0b01),
			expected: []string{"ada", "cyd"},
		},
		{
			name:     "combined bitmask matches either flag",
			spec:     hasFlag(0b11),
			expected: []string{"ada", "bob", "cyd"},
		},
		{
			name:     "boolean field",
			spec:     isActive(),
			expected: []string{"ada", "cyd"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var matched []string

			for _, m := range members() {
				if tc.spec.IsSatisfiedBy(m) {
					matched = append(matched, m.Name)
				}
			}

			require.Equal(t, tc.expected, matched)
		})
	}
}

func TestCombinators_TruthTables(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		name  string
		left  *specification.Spec[member]
		right *specification.Spec[member]
	}{
		{name: "level and flag", left: levelAtLeast(3), right: hasFlag(0b10)},
		{name: "joined and active", left: joinedBy(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), right: isActive()},
		{name: "same spec on both sides", left: isActive(), right: isActive()},
	}

	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			and := specification.And[member](tc.left, tc.right)
			or := specification.Or[member](tc.left, tc.right)
			notLeft := specification.Not[member](tc.left)

			for _, m := range members() {
				l, r := tc.left.IsSatisfiedBy(m), tc.right.IsSatisfiedBy(m)

				require.Equal(t, l && r, and.IsSatisfiedBy(m), "and for %s", m.Name)
				require.Equal(t, l || r, or.IsSatisfiedBy(m), "or for %s", m.Name)
				require.Equal(t, !l, notLeft.IsSatisfiedBy(m), "not for %s", m.Name)
			}
		})
	}
}

func TestCombinators_DeMorgan(t *testing.T) {
	t.Parallel()

	a, b := levelAtLeast(4), hasFlag(0b01)

	notAnd := a.And(b).Not()
	orNots := a.Not().Or(b.Not())

	for _, m := range members() {
		require.Equal(t, notAnd.IsSatisfiedBy(m), orNots.IsSatisfiedBy(m), m.Name)
	}
}

func TestCombinators_NestedCompositionIsNotFlattened(t *testing.T) {
	t.Parallel()

	a, b, c := levelAtLeast(1), hasFlag(0b01), isActive()

	combined := specification.And[member](a, specification.And[member](b, c))

	root, ok := combined.Predicate().Body.(specification.AndExpr)
	require.True(t, ok)
	require.Equal(t, specification.OpGte, root.Left.Operator())

	inner, ok := root.Right.(specification.AndExpr)
	require.True(t, ok)
	require.Equal(t, specification.OpNotEq, inner.Left.Operator())
	require.Equal(t, specification.OpField, inner.Right.Operator())
}

func TestCombinators_DoubleNegationIsKept(t *testing.T) {
	t.Parallel()

	spec := isActive().Not().Not()

	outer, ok := spec.Predicate().Body.(specification.NotExpr)
	require.True(t, ok)
	require.Equal(t, specification.OpNot, outer.Operand.Operator())

	for _, m := range members() {
		require.Equal(t, m.Active, spec.IsSatisfiedBy(m))
	}
}

func TestCombinators_UnifyToSingleParam(t *testing.T) {
	t.Parallel()

	left, right := levelAtLeast(2), joinedBy(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	combined := left.Or(right)

	params := specification.FreeParams(combined.Predicate().Body)
	require.Len(t, params, 1)
	require.Same(t, combined.Predicate().Param, params[0])
	require.NotSame(t, left.Predicate().Param, params[0])
	require.NotSame(t, right.Predicate().Param, params[0])

	require.Same(t, left.Predicate().Param, specification.FreeParams(left.Predicate().Body)[0])
	require.Same(t, right.Predicate().Param, specification.FreeParams(right.Predicate().Body)[0])
}

func TestCombinators_NotKeepsOperandParam(t *testing.T) {
	t.Parallel()

	spec := levelAtLeast(2)
	negated := spec.Not()

	require.Same(t, spec.Predicate().Param, negated.Predicate().Param)
}

func TestCombinators_Names(t *testing.T) {
	t.Parallel()

	spec := levelAtLeast(1).And(hasFlag(1).Not())

	require.Equal(t, "and(levelAtLeast, not(hasFlag))", spec.Name())
}

func TestCombinators_NilOperandPanics(t *testing.T) {
	t.Parallel()

	var missing *specification.Spec[member]

	cases := []struct {
		name string
		op   string
		fn   func()
	}{
		{name: "and with nil right", op: "and", fn: func() { specification.And[member](isActive(), nil) }},
		{name: "or with nil left", op: "or", fn: func() { specification.Or[member](nil, isActive()) }},
		{name: "not of nil", op: "not", fn: func() { specification.Not[member](nil) }},
		{name: "and with typed nil", op: "and", fn: func() { isActive().And(missing) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.PanicsWithError(t, specification.ErrNilSpecification.Error()+": "+tc.op, tc.fn)
		})
	}
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var missing *specification.Spec[member]

	require.True(t, specification.IsNil[member](nil))
	require.True(t, specification.IsNil[member](missing))
	require.False(t, specification.IsNil[member](isActive()))
}

func TestCombinators_SchemaMismatchPanics(t *testing.T) {
	t.Parallel()

	other := specification.NewSchema("other",
		specification.BoolField("active", func(m member) bool { return m.Active }),
	)
	foreign := specification.New("foreign", other, specification.Lambda("m", func(m *specification.Param) specification.Expr {
		return m.Field("active")
	}))

	require.Panics(t, func() { isActive().And(foreign) })
}

func TestEvaluator_CachedAndStable(t *testing.T) {
	t.Parallel()

	spec := levelAtLeast(3).And(isActive())
	subject := members()[2]

	first, err := spec.Evaluator()
	require.NoError(t, err)

	for range 10 {
		require.True(t, spec.IsSatisfiedBy(subject))
	}

	again, err := spec.Evaluator()
	require.NoError(t, err)
	require.True(t, first(subject))
	require.True(t, again(subject))
}

func TestEvaluator_ConcurrentFirstUse(t *testing.T) {
	t.Parallel()

	spec := levelAtLeast(3).Or(hasFlag(0b01))
	subjects := members()

	expected := make([]bool, len(subjects))
	for i, m := range subjects {
		fn, err := specification.Compile(memberSchema, spec.Predicate())
		require.NoError(t, err)

		expected[i] = fn(m)
	}

	var (
		wg      sync.WaitGroup
		results = make([][]bool, 32)
	)

	for g := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			out := make([]bool, len(subjects))
			for i, m := range subjects {
				out[i] = spec.IsSatisfiedBy(m)
			}

			results[g] = out
		}()
	}

	wg.Wait()

	for _, out := range results {
		require.Equal(t, expected, out)
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		build   func() *specification.Predicate
		wantErr error
	}{
		{
			name: "unknown field",
			build: func() *specification.Predicate {
				return specification.Lambda("m", func(m *specification.Param) specification.Expr {
					return specification.Eq(m.Field("missing"), specification.Const(1))
				})
			},
			wantErr: specification.ErrUnknownField,
		},
		{
			name: "kind mismatch",
			build: func() *specification.Predicate {
				return specification.Lambda("m", func(m *specification.Param) specification.Expr {
					return specification.Eq(m.Field("name"), specification.Const(1))
				})
			},
			wantErr: specification.ErrTypeMismatch,
		},
		{
			name: "bitand over strings",
			build: func() *specification.Predicate {
				return specification.Lambda("m", func(m *specification.Param) specification.Expr {
					return specification.NotEq(specification.BitAnd(m.Field("name"), m.Field("name")), specification.Const(0))
				})
			},
			wantErr: specification.ErrTypeMismatch,
		},
		{
			name: "ordering booleans",
			build: func() *specification.Predicate {
				return specification.Lambda("m", func(m *specification.Param) specification.Expr {
					return specification.Lt(m.Field("active"), specification.Const(true))
				})
			},
			wantErr: specification.ErrTypeMismatch,
		},
		{
			name: "unsupported literal",
			build: func() *specification.Predicate {
				return specification.Lambda("m", func(m *specification.Param) specification.Expr {
					return specification.Eq(m.Field("level"), specification.Const([]int{1}))
				})
			},
			wantErr: specification.ErrUnsupportedLiteral,
		},
		{
			name: "non boolean body",
			build: func() *specification.Predicate {
				return specification.Lambda("m", func(m *specification.Param) specification.Expr {
					return m.Field("level")
				})
			},
			wantErr: specification.ErrNotBoolean,
		},
		{
			name: "bodies joined without unification",
			build: func() *specification.Predicate {
				left, right := levelAtLeast(1).Predicate(), isActive().Predicate()

				return specification.NewPredicate(left.Param, specification.AndAlso(left.Body, right.Body))
			},
			wantErr: specification.ErrUnboundParameter,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fn, err := specification.Compile(memberSchema, tc.build())

			require.ErrorIs(t, err, tc.wantErr)
			require.Nil(t, fn)
		})
	}
}

func TestCompile_DateFieldsCompareCalendarDays(t *testing.T) {
	t.Parallel()

	evening := member{Name: "eve", Birthday: time.Date(2000, 5, 1, 18, 0, 0, 0, time.UTC), Joined: time.Date(2000, 5, 1, 18, 0, 0, 0, time.UTC)}
	morning := time.Date(2000, 5, 1, 9, 0, 0, 0, time.UTC)
	lateInBerlin := time.Date(2000, 5, 2, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	cases := []struct {
		name     string
		body     func(m *specification.Param) specification.Expr
		expected bool
	}{
		{
			name: "same day at another hour is equal",
			body: func(m *specification.Param) specification.Expr {
				return specification.Eq(m.Field("birthday"), specification.Const(morning))
			},
			expected: true,
		},
		{
			name: "same day is not earlier",
			body: func(m *specification.Param) specification.Expr {
				return specification.Lt(m.Field("birthday"), specification.Const(morning))
			},
			expected: false,
		},
		{
			name: "literal on the left is cut as well",
			body: func(m *specification.Param) specification.Expr {
				return specification.Gte(specification.Const(morning), m.Field("birthday"))
			},
			expected: true,
		},
		{
			name: "zoned literal uses its UTC day",
			body: func(m *specification.Param) specification.Expr {
				return specification.Eq(m.Field("birthday"), specification.Const(lateInBerlin))
			},
			expected: true,
		},
		{
			name: "time fields keep the instant",
			body: func(m *specification.Param) specification.Expr {
				return specification.Eq(m.Field("joined"), specification.Const(morning))
			},
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fn, err := specification.Compile(memberSchema, specification.Lambda("m", tc.body))
			require.NoError(t, err)
			require.Equal(t, tc.expected, fn(evening))
		})
	}
}

func TestSpec_EvaluatorErrorIsNotCached(t *testing.T) {
	t.Parallel()

	spec := specification.New("broken", memberSchema, specification.Lambda("m", func(m *specification.Param) specification.Expr {
		return specification.Eq(m.Field("missing"), specification.Const("x"))
	}))

	_, err := spec.Evaluator()
	require.ErrorIs(t, err, specification.ErrUnknownField)

	_, err = spec.Evaluator()
	require.ErrorIs(t, err, specification.ErrUnknownField)

	require.Panics(t, func() { spec.IsSatisfiedBy(member{}) })
}

func TestPredicate_String(t *testing.T) {
	t.Parallel()

	pred := levelAtLeast(3).Predicate()

	require.Equal(t, pred.Param.String()+" => ("+pred.Param.String()+".level >= 3)", pred.String())
}
