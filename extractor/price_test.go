package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$1.234,56 MXN", 1234.56, true},
		{"$1,234.56", 1234.56, true},
		{"1,299", 1299, true},
		{"1.299", 1299, true},
		{"12.5", 12.5, true},
		{"12,50", 12.5, true},
		{"1.234.567", 1234567, true},
		{"1,234,567", 1234567, true},
		{"  899 ", 899, true},
		{"$ 15.", 15, true},
		{"Gratis", 0, false},
		{"", 0, false},
		{"..,", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
