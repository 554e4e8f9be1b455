package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gatherly-api/internal/core/domain"
)

func TestNaira(t *testing.T) {
	tests := []struct {
		name   string
		amount domain.Money
		want   string
	}{
		{"zero", 0, "₦0"},
		{"whole naira", 500_000_00, "₦500,000"},
		{"with kobo", 333_333_33, "₦333,333.33"},
		{"single kobo digit", 105, "₦1.05"},
		{"under a thousand", 999_00, "₦999"},
		{"millions", 5_000_000_00, "₦5,000,000"},
		{"negative", -1_250_50, "-₦1,250.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Naira(tt.amount))
		})
	}
}
