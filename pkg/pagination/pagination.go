// Package pagination provides page/limit clamping and the pagination
// envelope returned by listing endpoints.
package pagination

// Params holds a clamped page and page size.
type Params struct {
	Page  int
	Limit int
}

// Envelope describes the pagination metadata returned alongside list data.
type Envelope struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// Clamp normalizes page and limit: page >= 1, 1 <= limit <= maxLimit.
// Out-of-range values are clamped, never rejected.
func Clamp(page, limit, maxLimit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = maxLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the SQL offset for the params.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewEnvelope builds the envelope for a total item count.
func NewEnvelope(p Params, totalItems int) Envelope {
	totalPages := totalItems / p.Limit
	if totalItems%p.Limit != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return Envelope{
		CurrentPage:  p.Page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: p.Limit,
		HasNext:      p.Page < totalPages,
		HasPrev:      p.Page > 1,
	}
}
