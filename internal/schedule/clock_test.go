package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTodayUsesBusinessTimezone(t *testing.T) {
	// 01:00 UTC on the 8th is still the evening of the 7th in São Paulo.
	now := time.Date(2026, 9, 8, 1, 0, 0, 0, time.UTC)
	c, err := NewClockWithNow("America/Sao_Paulo", func() time.Time { return now })
	require.NoError(t, err)

	assert.Equal(t, "2026-09-07", c.TodayString())
	assert.Equal(t, 22, c.Now().Hour())
}

func TestClockWeekday(t *testing.T) {
	c, err := NewClock("America/Sao_Paulo")
	require.NoError(t, err)

	wd, err := c.Weekday("2026-09-13")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	_, err = c.Weekday("13/09/2026")
	assert.Error(t, err)
}

func TestNewClockRejectsUnknownTimezone(t *testing.T) {
	_, err := NewClock("Not/AZone")
	assert.Error(t, err)
}

func TestClockMinutesRoundTrip(t *testing.T) {
	m, err := clockToMinutes("14:30")
	require.NoError(t, err)
	assert.Equal(t, 870, m)
	assert.Equal(t, "14:30", minutesToClock(870))

	_, err = clockToMinutes("25:99")
	assert.Error(t, err)
}
