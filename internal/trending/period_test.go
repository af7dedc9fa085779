package trending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStart24h(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	since, err := WindowStart(Period24h, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), since)
}

func TestWindowStartDefaultsTo24h(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	since, err := WindowStart("", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), since)
}

func TestWindowStartTodayAfterSeven(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	now := time.Date(2024, 6, 15, 7, 1, 0, 0, loc)
	since, err := WindowStart(PeriodToday, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, loc), since)
}

func TestWindowStartTodayBeforeSeven(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	now := time.Date(2024, 6, 15, 6, 59, 0, 0, loc)
	since, err := WindowStart(PeriodToday, now)
	require.NoError(t, err)
	// too early for a same-day window, rolls back 24 hours
	assert.Equal(t, now.Add(-24*time.Hour), since)
}

func TestWindowStartWeekAndMonth(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	since, err := WindowStart(PeriodWeek, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), since)

	since, err = WindowStart(PeriodMonth, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), since)
}

func TestWindowStartUnknownPeriod(t *testing.T) {
	_, err := WindowStart("year", time.Now())
	assert.Error(t, err)
}
