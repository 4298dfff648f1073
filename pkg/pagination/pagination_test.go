package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
		skip    int64
	}{
		{"no query uses defaults", "", 1, 20, 0},
		{"page and per_page", "?page=3&per_page=50", 3, 50, 100},
		{"limit alias", "?page=2&limit=5", 2, 5, 5},
		{"per_page beats limit", "?per_page=30&limit=5", 1, 30, 0},
		{"page below one", "?page=0", 1, 20, 0},
		{"page not a number", "?page=two", 1, 20, 0},
		{"limit above cap", "?limit=101", 1, 20, 0},
		{"limit at cap", "?page=2&limit=100", 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/orders"+tt.query, nil))

			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.skip, p.Skip())
			assert.Equal(t, int64(tt.perPage), p.Limit())
		})
	}
}

func TestNewResult_PageCounts(t *testing.T) {
	res := NewResult([]int{7, 8}, 11, Params{Page: 2, PerPage: 5, Offset: 5})

	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)

	last := NewResult([]int{9}, 11, Params{Page: 3, PerPage: 5, Offset: 10})
	assert.False(t, last.HasNext)
}

func TestNewResult_NoRows(t *testing.T) {
	res := NewResult[int](nil, 0, DefaultParams())

	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, 0, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.False(t, res.HasPrev)
}
