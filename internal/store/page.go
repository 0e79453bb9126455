package store

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 10

	MaxPostLimit    = 50
	MaxCommentLimit = 100
	MaxLikerLimit   = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// ParsePage reads raw page/limit query values. Unparseable values fall back
// to the defaults, the page is floored at 1 and the limit clamped to [1, max].
func ParsePage(rawPage, rawLimit string, max int) Page {
	return NewPage(parseIntDefault(rawPage, DefaultPage), parseIntDefault(rawLimit, DefaultLimit), max)
}

func NewPage(number, limit, max int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: number, Limit: clamp(limit, 1, max)}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Pagination is the metadata returned next to every listed page.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(p Page, total int64) Pagination {
	var pages int64
	if total > 0 && p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Page: p.Number, Limit: p.Limit, Total: total, Pages: pages}
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
