package model

import "github.com/architeacher/specifications/pkg/specification"

type CriteriaBuilder struct {
	spec    UserSpecification
	sorting []SortField
	page    uint
	size    uint
}

func NewCriteria() *CriteriaBuilder {
	return &CriteriaBuilder{}
}

// Where adds a filter. Successive filters are AND-ed; nil, typed nil
// pointers included, is ignored.
func (b *CriteriaBuilder) Where(spec UserSpecification) *CriteriaBuilder {
	if specification.IsNil(spec) {
		return b
	}

	if b.spec == nil {
		b.spec = spec

		return b
	}

	b.spec = specification.And(b.spec, spec)

	return b
}

func (b *CriteriaBuilder) WhereNot(spec UserSpecification) *CriteriaBuilder {
	if specification.IsNil(spec) {
		return b
	}

	return b.Where(specification.Not(spec))
}

// WhereAny adds a filter satisfied by any of specs.
func (b *CriteriaBuilder) WhereAny(specs ...UserSpecification) *CriteriaBuilder {
	if len(specs) == 0 {
		return b
	}

	var combined UserSpecification = specs[0]
	for _, s := range specs[1:] {
		combined = specification.Or(combined, s)
	}

	return b.Where(combined)
}

// OrderBy appends a sort key; a leading '-' sorts descending.
func (b *CriteriaBuilder) OrderBy(field string) *CriteriaBuilder {
	direction := SortAsc
	actualField := field

	if len(field) > 0 && field[0] == '-' {
		direction = SortDesc
		actualField = field[1:]
	}

	b.sorting = append(b.sorting, SortField{Field: actualField, Direction: direction})

	return b
}

// Paginate enables a page window. Page defaults to 1; a zero size disables
// paging.
func (b *CriteriaBuilder) Paginate(page, size uint) *CriteriaBuilder {
	if page == 0 {
		page = 1
	}

	b.page = page
	b.size = size

	return b
}

func (b *CriteriaBuilder) Build() Criteria {
	return Criteria{
		spec:    b.spec,
		sorting: b.sorting,
		page:    b.page,
		size:    b.size,
	}
}
