package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoursBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.InDelta(t, 1.5, HoursBetween(start, start.Add(90*time.Minute)), 1e-9)
	assert.InDelta(t, -2, HoursBetween(start, start.Add(-2*time.Hour)), 1e-9)
	// Sub-second precision is dropped.
	assert.InDelta(t, 1.0/3600, HoursBetween(start, start.Add(1500*time.Millisecond)), 1e-9)
	assert.InDelta(t, float64(start.Unix())/3600, HoursBetween(time.Time{}, start), 1e-9)
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0h"},
		{2, "2h"},
		{2.5, "2h30"},
		{0.75, "0h45"},
		{10.0 / 60.0, "0h10"},
		{-1.5, "-1h30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHours(tt.in), tt.in)
	}
}

func TestFormatDateTime(t *testing.T) {
	assert.Empty(t, FormatDateTime(time.Time{}, time.UTC))

	ts := time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-02 09:05", FormatDateTime(ts, time.UTC))
	assert.Equal(t, "2024-01-02 10:05", FormatDateTime(ts, time.FixedZone("CET", 3600)))
}

func TestOrEpoch(t *testing.T) {
	assert.Equal(t, int64(0), OrEpoch(time.Time{}).Unix())

	ts := time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, ts, OrEpoch(ts))
}

func TestQueryValue(t *testing.T) {
	assert.Empty(t, Value(nil))
	assert.Equal(t, "x", Value(Str("x")))
}
