// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is the number of rows returned when the client does
// not ask for a size.
const DefaultPageSize = 50

// MaxPageSize caps client-requested page sizes.
const MaxPageSize = 200

// ParsePage extracts the 1-based "page" query parameter. Returns 1 if
// not present or invalid.
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

// ParsePageSize extracts the "page_size" query parameter, clamped to
// [1, MaxPageSize]. Returns DefaultPageSize if not present or invalid.
func ParsePageSize(r *http.Request) int {
	s := query.Get(r, "page_size")
	if s == "" {
		return DefaultPageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Meta is the pagination block attached to list responses.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewMeta derives the pagination block from a page request and the
// total match count.
func NewMeta(page, pageSize int, total int64) Meta {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}
}
