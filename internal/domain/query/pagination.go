package query

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a zero based page window.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination clamps page and pageSize to sane values.
func NewPagination(page, pageSize int) Pagination {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

func (p Pagination) Offset() int {
	return p.Page * p.Limit()
}

func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}
