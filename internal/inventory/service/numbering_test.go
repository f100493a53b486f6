package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayPrefix(t *testing.T) {
	day := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, "GR-260830-", dayPrefix("GR", day))
	assert.Equal(t, "GRN-260830-", dayPrefix("GRN", day))
	assert.Equal(t, "DN-260830-", dayPrefix("DN", day))
}

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name   string
		last   string
		prefix string
		width  int
		want   string
	}{
		{"first of the day", "", "GR-260830-", 3, "GR-260830-001"},
		{"increments last", "GR-260830-007", "GR-260830-", 3, "GR-260830-008"},
		{"rolls into three digits", "GR-260830-099", "GR-260830-", 3, "GR-260830-100"},
		{"grows past the width", "GR-260830-999", "GR-260830-", 3, "GR-260830-1000"},
		{"delivery note width", "DN-260830-0041", "DN-260830-", 4, "DN-260830-0042"},
		{"ignores foreign prefix", "GR-260829-015", "GR-260830-", 3, "GR-260830-001"},
		{"ignores malformed suffix", "GR-260830-abc", "GR-260830-", 3, "GR-260830-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextNumber(tt.last, tt.prefix, tt.width))
		})
	}
}
