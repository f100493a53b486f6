package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_ReturnsUTC(t *testing.T) {
	now := System().Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now().UTC(), now, time.Second)
}

func TestFixed(t *testing.T) {
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clk := NewFixed(start)

	assert.Equal(t, start, clk.Now())
	assert.Equal(t, start, clk.Now(), "repeated reads do not drift")

	clk.Advance(48 * time.Hour)
	assert.Equal(t, start.Add(48*time.Hour), clk.Now())

	pinned := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(pinned)
	assert.Equal(t, pinned, clk.Now())
}

func TestStartOfDay(t *testing.T) {
	late := time.Date(2026, 8, 30, 23, 59, 59, 999999999, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), StartOfDay(late))

	midnight := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, midnight, StartOfDay(midnight))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"same day", time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC), 0},
		{"tomorrow despite later hour", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), 1},
		{"next month", time.Date(2026, 9, 29, 0, 0, 0, 0, time.UTC), 30},
		{"yesterday", time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC), -1},
		{"long past", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(now, tt.date))
		})
	}
}
