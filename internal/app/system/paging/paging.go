// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one slice of a view.
type Page[T any] struct {
	Items      []T
	PageNumber int // 1-based, as requested
	TotalPages int // always >= 1
}

// TotalPages returns max(1, ceil(length/pageSize)).
func TotalPages(length, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if length <= 0 {
		return 1
	}
	return (length + pageSize - 1) / pageSize
}

// Paginate returns items [(pageNumber-1)*pageSize, pageNumber*pageSize) of view.
//
// pageNumber is not corrected: a number past the last page yields an empty
// Items slice while TotalPages still reports the real count. The returned
// Items share no backing array with view.
func Paginate[T any](view []T, pageSize, pageNumber int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	p := Page[T]{
		PageNumber: pageNumber,
		TotalPages: TotalPages(len(view), pageSize),
	}
	if pageNumber < 1 {
		return p
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(view) {
		return p
	}
	end := start + pageSize
	if end > len(view) {
		end = len(view)
	}
	p.Items = make([]T, end-start)
	copy(p.Items, view[start:end])
	return p
}

// Cursor tracks the current page of a view.
type Cursor struct {
	Page       int
	TotalPages int
}

// NewCursor starts at page 1.
func NewCursor(totalPages int) Cursor {
	if totalPages < 1 {
		totalPages = 1
	}
	return Cursor{Page: 1, TotalPages: totalPages}
}

// HasNext reports whether a later page exists.
func (c Cursor) HasNext() bool { return c.Page < c.TotalPages }

// HasPrev reports whether an earlier page exists.
func (c Cursor) HasPrev() bool { return c.Page > 1 }

// Next advances one page; at the last page the cursor is returned unchanged.
func (c Cursor) Next() Cursor {
	if !c.HasNext() {
		return c
	}
	c.Page++
	return c
}

// Previous goes back one page; at page 1 the cursor is returned unchanged.
func (c Cursor) Previous() Cursor {
	if !c.HasPrev() {
		return c
	}
	c.Page--
	return c
}

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start int // 1-based start index (0 if no results)
	End   int // 1-based end index (0 if no results)
	Total int
}

// ComputeRange calculates the "showing X to Y of N" values for a page.
func ComputeRange(pageNumber, pageSize, shown, total int) Range {
	if shown == 0 {
		return Range{Total: total}
	}
	start := (pageNumber-1)*pageSize + 1
	return Range{
		Start: start,
		End:   start + shown - 1,
		Total: total,
	}
}
