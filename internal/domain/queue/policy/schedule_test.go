package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "14:00", hour: 14, minute: 0},
		{in: "00:00", hour: 0, minute: 0},
		{in: "23:59", hour: 23, minute: 59},
		{in: "9:05", hour: 9, minute: 5},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "14", wantErr: true},
	}

	for _, tt := range tests {
		hour, minute, err := parseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.hour, hour, "input %q", tt.in)
		assert.Equal(t, tt.minute, minute, "input %q", tt.in)
	}
}

func TestIsDueBoundary(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	day := time.Date(2025, 6, 15, 0, 0, 0, 0, loc)
	due, err := dueAt(day.Add(12*time.Hour), "14:00", loc)
	require.NoError(t, err)

	// One minute early: not due
	assert.False(t, isDue(time.Date(2025, 6, 15, 13, 59, 0, 0, loc), due))
	// Exactly on time: due (inclusive boundary)
	assert.True(t, isDue(time.Date(2025, 6, 15, 14, 0, 0, 0, loc), due))
	// Any time after: due
	assert.True(t, isDue(time.Date(2025, 6, 15, 22, 30, 0, 0, loc), due))
}

func TestDueAtFollowsZoneRules(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	// Winter: CET (UTC+1)
	winter := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	dueWinter, err := dueAt(winter, "14:00", loc)
	require.NoError(t, err)
	assert.Equal(t, "13:00", dueWinter.UTC().Format("15:04"))

	// Summer: CEST (UTC+2)
	summer := time.Date(2025, 7, 10, 10, 0, 0, 0, time.UTC)
	dueSummer, err := dueAt(summer, "14:00", loc)
	require.NoError(t, err)
	assert.Equal(t, "12:00", dueSummer.UTC().Format("15:04"))
}

func TestDueAtUsesLocalDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:00 UTC on the 14th is already the 15th in Tokyo
	now := time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)
	due, err := dueAt(now, "09:00", tokyo)
	require.NoError(t, err)

	assert.Equal(t, 15, due.Day())
	assert.Equal(t, 9, due.Hour())
}

func TestDayStart(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	now := time.Date(2025, 6, 15, 18, 45, 12, 0, loc)
	start := dayStart(now, loc)

	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc), start)
}
