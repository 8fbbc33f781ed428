package repos

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/specification"
)

const defaultSortColumn = "name"

var columnMapping = map[string]string{
	model.FieldID:          "id",
	model.FieldName:        "name",
	model.FieldDateOfBirth: "date_of_birth",
	model.FieldGender:      "gender",
}

type (
	// Dialect captures what differs between the SQL backends: the placeholder
	// style and how literals are bound. BindTime receives UTC midnight; every
	// time column is a DATE.
	Dialect struct {
		Name        string
		Placeholder sq.PlaceholderFormat
		BindTime    func(time.Time) any
	}

	// ExprTranslator pushes a specification's predicate down into a WHERE
	// clause.
	ExprTranslator struct {
		dialect Dialect
		logger  logger.Logger
	}

	translation struct {
		dialect Dialect
		param   *specification.Param
	}
)

var (
	PostgresDialect = Dialect{
		Name:        "postgres",
		Placeholder: sq.Dollar,
		BindTime:    func(t time.Time) any { return t },
	}

	SQLiteDialect = Dialect{
		Name:        "sqlite",
		Placeholder: sq.Question,
		BindTime:    func(t time.Time) any { return t.Format(time.DateOnly) },
	}
)

func NewExprTranslator(dialect Dialect, log logger.Logger) *ExprTranslator {
	return &ExprTranslator{dialect: dialect, logger: log}
}

func (t *ExprTranslator) StatementBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(t.dialect.Placeholder)
}

// ApplyToSelect adds the filter, ordering and page window of criteria.
func (t *ExprTranslator) ApplyToSelect(builder sq.SelectBuilder, criteria model.Criteria) (sq.SelectBuilder, error) {
	builder, err := t.ApplyConditionsOnly(builder, criteria)
	if err != nil {
		return builder, err
	}

	builder = t.applySorting(builder, criteria)
	builder = t.applyPagination(builder, criteria)

	return builder, nil
}

func (t *ExprTranslator) ApplyConditionsOnly(builder sq.SelectBuilder, criteria model.Criteria) (sq.SelectBuilder, error) {
	if !criteria.HasSpec() {
		return builder, nil
	}

	cond, err := t.Translate(criteria.Spec())
	if err != nil {
		return builder, err
	}

	return builder.Where(cond), nil
}

// Translate type-checks spec and converts its predicate into a condition.
// A spec that cannot be evaluated in process is rejected before any SQL is
// produced.
func (t *ExprTranslator) Translate(spec model.UserSpecification) (sq.Sqlizer, error) {
	if specification.IsNil(spec) {
		return nil, fmt.Errorf("%w: %w", model.ErrUnsupportedExpression, specification.ErrNilSpecification)
	}

	if _, err := spec.Evaluator(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnsupportedExpression, err)
	}

	pred := spec.Predicate()
	tr := translation{dialect: t.dialect, param: pred.Param}

	cond, err := tr.condition(pred.Body)
	if err != nil {
		return nil, fmt.Errorf("translating %s: %w", spec.Name(), err)
	}

	return cond, nil
}

func (tr translation) condition(expr specification.Expr) (sq.Sqlizer, error) {
	switch e := expr.(type) {
	case specification.AndExpr:
		l, r, err := tr.conditions(e.Left, e.Right)
		if err != nil {
			return nil, err
		}

		return sq.And{l, r}, nil

	case specification.OrExpr:
		l, r, err := tr.conditions(e.Left, e.Right)
		if err != nil {
			return nil, err
		}

		return sq.Or{l, r}, nil

	case specification.NotExpr:
		inner, err := tr.condition(e.Operand)
		if err != nil {
			return nil, err
		}

		return sq.Expr("NOT (?)", inner), nil

	case specification.CompareExpr:
		return tr.compare(e)

	case specification.ConstExpr:
		if b, ok := e.Value.(bool); ok {
			if b {
				return sq.Expr("1 = 1"), nil
			}

			return sq.Expr("1 = 0"), nil
		}
	}

	return nil, fmt.Errorf("%w: %s is not a condition", model.ErrUnsupportedExpression, expr)
}

func (tr translation) conditions(left, right specification.Expr) (sq.Sqlizer, sq.Sqlizer, error) {
	l, err := tr.condition(left)
	if err != nil {
		return nil, nil, err
	}

	r, err := tr.condition(right)
	if err != nil {
		return nil, nil, err
	}

	return l, r, nil
}

func (tr translation) compare(e specification.CompareExpr) (sq.Sqlizer, error) {
	if field, ok := e.Left.(specification.FieldExpr); ok {
		if lit, ok := e.Right.(specification.ConstExpr); ok {
			return tr.columnCompare(e.Op, field, lit)
		}
	}

	if lit, ok := e.Left.(specification.ConstExpr); ok {
		if field, ok := e.Right.(specification.FieldExpr); ok {
			return tr.columnCompare(flip(e.Op), field, lit)
		}
	}

	ls, largs, err := tr.operand(e.Left)
	if err != nil {
		return nil, err
	}

	rs, rargs, err := tr.operand(e.Right)
	if err != nil {
		return nil, err
	}

	return sq.Expr(fmt.Sprintf("%s %s %s", ls, sqlSymbol(e.Op), rs), append(largs, rargs...)...), nil
}

func (tr translation) columnCompare(op specification.Operator, field specification.FieldExpr, lit specification.ConstExpr) (sq.Sqlizer, error) {
	col, err := tr.column(field)
	if err != nil {
		return nil, err
	}

	value, err := tr.bind(lit)
	if err != nil {
		return nil, err
	}

	switch op {
	case specification.OpEq:
		return sq.Eq{col: value}, nil
	case specification.OpNotEq:
		return sq.NotEq{col: value}, nil
	case specification.OpLt:
		return sq.Lt{col: value}, nil
	case specification.OpLte:
		return sq.LtOrEq{col: value}, nil
	case specification.OpGt:
		return sq.Gt{col: value}, nil
	case specification.OpGte:
		return sq.GtOrEq{col: value}, nil
	}

	return nil, fmt.Errorf("%w: comparison %q", model.ErrUnsupportedExpression, op)
}

func (tr translation) operand(expr specification.Expr) (string, []any, error) {
	switch e := expr.(type) {
	case specification.FieldExpr:
		col, err := tr.column(e)

		return col, nil, err

	case specification.ConstExpr:
		if e.Kind == specification.KindTime {
			return "", nil, fmt.Errorf("%w: time literal %s must be compared with a column", model.ErrUnsupportedExpression, e)
		}

		value, err := tr.bind(e)
		if err != nil {
			return "", nil, err
		}

		return "?", []any{value}, nil

	case specification.BitAndExpr:
		ls, largs, err := tr.operand(e.Left)
		if err != nil {
			return "", nil, err
		}

		rs, rargs, err := tr.operand(e.Right)
		if err != nil {
			return "", nil, err
		}

		return fmt.Sprintf("(%s & %s)", ls, rs), append(largs, rargs...), nil
	}

	return "", nil, fmt.Errorf("%w: %s is not a value", model.ErrUnsupportedExpression, expr)
}

func (tr translation) column(field specification.FieldExpr) (string, error) {
	if field.Param != tr.param {
		return "", fmt.Errorf("%w: %s is not bound to %s", model.ErrUnsupportedExpression, field, tr.param)
	}

	col, ok := columnMapping[field.Name]
	if !ok {
		return "", fmt.Errorf("%w: no column for field %q", model.ErrUnsupportedExpression, field.Name)
	}

	return col, nil
}

func (tr translation) bind(lit specification.ConstExpr) (any, error) {
	switch lit.Kind {
	case specification.KindTime:
		return tr.dialect.BindTime(specification.DateOf(lit.Value.(time.Time))), nil
	case specification.KindInt, specification.KindFloat, specification.KindString, specification.KindBool:
		return lit.Value, nil
	}

	return nil, fmt.Errorf("%w: literal %v", model.ErrUnsupportedExpression, lit.Value)
}

func flip(op specification.Operator) specification.Operator {
	switch op {
	case specification.OpLt:
		return specification.OpGt
	case specification.OpLte:
		return specification.OpGte
	case specification.OpGt:
		return specification.OpLt
	case specification.OpGte:
		return specification.OpLte
	}

	return op
}

func sqlSymbol(op specification.Operator) string {
	switch op {
	case specification.OpEq:
		return "="
	case specification.OpNotEq:
		return "<>"
	}

	return op.Symbol()
}

func (t *ExprTranslator) sortColumn(field string) string {
	if col, ok := columnMapping[field]; ok {
		return col
	}

	t.logger.Warn().
		Str("field", field).
		Str("fallback", defaultSortColumn).
		Msg("unknown sort field requested, falling back to default")

	return defaultSortColumn
}

func (t *ExprTranslator) applySorting(builder sq.SelectBuilder, c model.Criteria) sq.SelectBuilder {
	for _, s := range c.Sorting() {
		builder = builder.OrderBy(fmt.Sprintf("%s %s", t.sortColumn(s.Field), s.Direction))
	}

	return builder
}

func (t *ExprTranslator) applyPagination(builder sq.SelectBuilder, c model.Criteria) sq.SelectBuilder {
	if !c.HasPagination() {
		return builder
	}

	return builder.Limit(uint64(c.Size())).Offset(uint64(c.Offset()))
}
