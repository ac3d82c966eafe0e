package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a clamped page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Parse reads ?page= and ?limit=. Missing or unusable values fall back to the
// defaults and limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	return Params{
		Page:  positive(c.Query("page"), DefaultPage),
		Limit: min(positive(c.Query("limit"), DefaultLimit), MaxLimit),
	}
}

func positive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Page is one page of a listing as returned to clients.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

// NewPage wraps items with the totals of the listing. A nil slice is
// returned as an empty list.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
