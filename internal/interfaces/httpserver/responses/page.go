package responses

// PageResponse is a page of items with the total number of matches.
type PageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// ListResponse wraps an unpaginated list.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items}
}

func NewPageResponse[T any](items []T, total int64) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{Items: items, Total: total}
}
