package model

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

type (
	SortField struct {
		Field     string
		Direction SortDirection
	}

	// Criteria is a filter plus ordering and an optional page window.
	Criteria struct {
		spec    UserSpecification
		sorting []SortField
		page    uint
		size    uint
	}
)

func (c Criteria) Spec() UserSpecification { return c.spec }
func (c Criteria) Page() uint              { return c.page }
func (c Criteria) Size() uint              { return c.size }
func (c Criteria) Offset() uint            { return (c.page - 1) * c.size }
func (c Criteria) HasSpec() bool           { return c.spec != nil }
func (c Criteria) HasSorting() bool        { return len(c.sorting) > 0 }
func (c Criteria) HasPagination() bool     { return c.page > 0 && c.size > 0 }

// Sorting returns the requested order, or name then id when none was given.
func (c Criteria) Sorting() []SortField {
	if !c.HasSorting() {
		return DefaultSorting()
	}

	return c.sorting
}

func DefaultSorting() []SortField {
	return []SortField{
		{Field: FieldName, Direction: SortAsc},
		{Field: FieldID, Direction: SortAsc},
	}
}

// ForSpec is the criteria List uses: the filter alone, default order, no
// paging. A nil spec selects everything.
func ForSpec(spec UserSpecification) Criteria {
	return NewCriteria().Where(spec).Build()
}
