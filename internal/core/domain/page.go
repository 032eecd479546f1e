package domain

import "math"

// PageRequest asks for a 1-indexed page of PerPage items.
type PageRequest struct {
	Page    int
	PerPage int
}

// PageBounds are the configured pagination limits.
type PageBounds struct {
	MinPerPage     int
	DefaultPerPage int
	MaxPerPage     int
}

// Normalize applies the bounds: page below 1 becomes 1, a zero perPage takes
// the default, anything else is clamped to [MinPerPage, MaxPerPage]. Page is
// capped so its offset fits in an int64.
func (b PageBounds) Normalize(req PageRequest) PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.PerPage == 0:
		req.PerPage = b.DefaultPerPage
	case req.PerPage < b.MinPerPage:
		req.PerPage = b.MinPerPage
	case req.PerPage > b.MaxPerPage:
		req.PerPage = b.MaxPerPage
	}
	if req.PerPage > 0 && int64(req.Page) > math.MaxInt64/int64(req.PerPage) {
		req.Page = int(math.MaxInt64 / int64(req.PerPage))
	}
	return req
}

// Offset is the number of items preceding the requested page. It saturates
// at math.MaxInt64 and is never negative.
func (r PageRequest) Offset() int64 {
	if r.Page < 1 || r.PerPage < 1 {
		return 0
	}
	page, per := int64(r.Page-1), int64(r.PerPage)
	if page > math.MaxInt64/per {
		return math.MaxInt64
	}
	return page * per
}

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	Total       int64 `json:"total"`
	LastPage    int   `json:"lastPage"`
	CurrentPage int   `json:"currentPage"`
	PerPage     int   `json:"perPage"`
	Prev        *int  `json:"prev"`
	Next        *int  `json:"next"`
}

// Page is one page of results plus its metadata.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage assembles a Page from the items of req and the total count.
func NewPage[T any](items []T, total int64, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	lastPage := 0
	if req.PerPage > 0 {
		lastPage = int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	}
	meta := PageMeta{
		Total:       total,
		LastPage:    lastPage,
		CurrentPage: req.Page,
		PerPage:     req.PerPage,
	}
	if req.Page > 1 {
		prev := req.Page - 1
		meta.Prev = &prev
	}
	if req.Page < lastPage {
		next := req.Page + 1
		meta.Next = &next
	}
	return &Page[T]{Data: items, Meta: meta}
}
