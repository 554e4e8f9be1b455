package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name        string
		totalCost   Money
		slotCount   int
		wantPerSlot Money
		wantRem     Money
		wantErr     error
	}{
		{
			name:        "even split",
			totalCost:   1000,
			slotCount:   5,
			wantPerSlot: 200,
			wantRem:     0,
		},
		{
			name:        "split with remainder",
			totalCost:   1_000_000,
			slotCount:   3,
			wantPerSlot: 333_333,
			wantRem:     1,
		},
		{
			name:        "single slot takes everything",
			totalCost:   777,
			slotCount:   1,
			wantPerSlot: 777,
			wantRem:     0,
		},
		{
			name:        "zero cost",
			totalCost:   0,
			slotCount:   4,
			wantPerSlot: 0,
			wantRem:     0,
		},
		{
			name:      "zero slots rejected",
			totalCost: 100,
			slotCount: 0,
			wantErr:   ErrInvalidAllocation,
		},
		{
			name:      "negative slots rejected",
			totalCost: 100,
			slotCount: -2,
			wantErr:   ErrInvalidAllocation,
		},
		{
			name:      "negative cost rejected",
			totalCost: -1,
			slotCount: 3,
			wantErr:   ErrInvalidAllocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc, err := Allocate(tt.totalCost, tt.slotCount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPerSlot, alloc.CostPerSlot)
			assert.Equal(t, tt.wantRem, alloc.Remainder)
		})
	}
}

func TestAllocateReconstructsTotal(t *testing.T) {
	// costPerSlot*slots + remainder == total and 0 <= remainder < slots,
	// across a spread of totals and slot counts.
	totals := []Money{0, 1, 7, 99, 1000, 54_321, 1_000_000, 123_456_789}
	counts := []int{1, 2, 3, 7, 10, 50, 1000}

	for _, total := range totals {
		for _, count := range counts {
			alloc, err := Allocate(total, count)
			require.NoError(t, err)
			assert.Equal(t, total, alloc.CostPerSlot*Money(count)+alloc.Remainder,
				"total=%d count=%d", total, count)
			assert.GreaterOrEqual(t, alloc.Remainder, Money(0))
			assert.Less(t, alloc.Remainder, Money(count))
		}
	}
}
