package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		want        Page
	}{
		{"defaults", "", "", Page{Number: 1, Limit: 10}},
		{"garbage", "abc", "x", Page{Number: 1, Limit: 10}},
		{"floor page", "-3", "5", Page{Number: 1, Limit: 5}},
		{"clamp limit high", "2", "500", Page{Number: 2, Limit: MaxPostLimit}},
		{"clamp limit low", "2", "0", Page{Number: 2, Limit: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePage(tt.page, tt.limit, MaxPostLimit))
		})
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, int64(0), NewPagination(Page{Number: 1, Limit: 10}, 0).Pages)
	assert.Equal(t, int64(1), NewPagination(Page{Number: 2, Limit: 10}, 5).Pages)
	assert.Equal(t, int64(1), NewPagination(Page{Number: 1, Limit: 10}, 10).Pages)
	assert.Equal(t, int64(2), NewPagination(Page{Number: 1, Limit: 10}, 11).Pages)

	p := NewPagination(Page{Number: 3, Limit: 4}, 9)
	assert.Equal(t, Pagination{Page: 3, Limit: 4, Total: 9, Pages: 3}, p)
	assert.Equal(t, 8, Page{Number: 3, Limit: 4}.Offset())
}
