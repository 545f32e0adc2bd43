package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationView(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		limit      int
		total      int64
		totalPages int64
		hasMore    bool
	}{
		{"first of three pages", 1, 20, 45, 3, true},
		{"middle page", 2, 20, 45, 3, true},
		{"last page", 3, 20, 45, 3, false},
		{"exact fit", 2, 20, 40, 2, false},
		{"empty result", 1, 20, 0, 0, false},
		{"single partial page", 1, 20, 7, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newPaginationView(tc.page, tc.limit, tc.total)
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.limit, p.Limit)
			assert.Equal(t, tc.total, p.TotalCount)
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.hasMore, p.HasMore)
		})
	}
}
