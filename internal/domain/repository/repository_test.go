package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{"defaults applied", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"page size capped", 1, 500, 1, 100},
		{"valid values kept", 3, 50, 3, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 20)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}

func TestNewPagedResult(t *testing.T) {
	items := []string{"a", "b", "c"}

	result := NewPagedResult(items, 23, NewPagination(1, 10))
	assert.Equal(t, int64(23), result.Total)
	assert.Equal(t, 3, result.TotalPages)

	exact := NewPagedResult(items, 20, NewPagination(2, 10))
	assert.Equal(t, 2, exact.TotalPages)
	assert.Equal(t, 2, exact.Page)
}
