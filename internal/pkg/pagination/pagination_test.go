package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMeta(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		total      int64
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{"first of many", 1, 20, 95, 5, true, false},
		{"middle page", 3, 20, 95, 5, true, true},
		{"last page", 5, 20, 95, 5, false, true},
		{"exact fit", 2, 10, 20, 2, false, true},
		{"empty", 1, 20, 0, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := GetMeta(&Params{Page: tt.page, Limit: tt.limit}, tt.total)
			assert.Equal(t, tt.totalPages, meta.TotalPages)
			assert.Equal(t, tt.hasNext, meta.HasNext)
			assert.Equal(t, tt.hasPrev, meta.HasPrev)
			assert.Equal(t, tt.total, meta.Total)
		})
	}
}
