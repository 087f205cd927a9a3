package schedule

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSettings(t *testing.T) (*SettingsStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewSettingsStore(mock), mock
}

func TestDateConfigDefaultsWhenMissing(t *testing.T) {
	store, mock := newMockSettings(t)

	mock.ExpectQuery("SELECT config FROM date_settings").
		WillReturnError(pgx.ErrNoRows)

	cfg, err := store.DateConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultDateConfig(), cfg)
}

func TestDateConfigOverridesFromRow(t *testing.T) {
	store, mock := newMockSettings(t)

	raw := []byte(`{"daysToShow": 7, "excludedDays": [0], "startFromTomorrow": false}`)
	mock.ExpectQuery("SELECT config FROM date_settings").
		WillReturnRows(pgxmock.NewRows([]string{"config"}).AddRow(raw))

	cfg, err := store.DateConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.DaysToShow)
	assert.Equal(t, []int{0}, cfg.ExcludedDays)
	assert.False(t, cfg.StartFromTomorrow)
}

func TestDateConfigRejectsNonPositiveDays(t *testing.T) {
	store, mock := newMockSettings(t)

	mock.ExpectQuery("SELECT config FROM date_settings").
		WillReturnRows(pgxmock.NewRows([]string{"config"}).AddRow([]byte(`{"daysToShow": 0}`)))

	cfg, err := store.DateConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultDateConfig().DaysToShow, cfg.DaysToShow)
}

func TestWeeklyHoursClosedDayIsNil(t *testing.T) {
	store, mock := newMockSettings(t)

	raw := []byte(`{
		"monday": {"startTime": "09:00", "endTime": "17:00", "interval": 60,
			"lunchBreak": {"start": "12:00", "end": "13:00"}},
		"sunday": null
	}`)
	mock.ExpectQuery("SELECT config FROM time_settings").
		WillReturnRows(pgxmock.NewRows([]string{"config"}).AddRow(raw))

	hours, err := store.WeeklyHours(context.Background())
	require.NoError(t, err)

	mon := hours.ForWeekday(1)
	require.NotNil(t, mon)
	assert.Equal(t, "09:00", mon.StartTime)
	assert.Equal(t, 60, mon.IntervalMinutes)
	require.NotNil(t, mon.LunchBreak)
	assert.Equal(t, "12:00", mon.LunchBreak.Start)

	assert.Nil(t, hours.ForWeekday(0))
	assert.Nil(t, hours.ForWeekday(2))
}

func TestReminderIntervalHours(t *testing.T) {
	store, mock := newMockSettings(t)

	mock.ExpectQuery("SELECT reminder_interval FROM reminder_settings").
		WillReturnRows(pgxmock.NewRows([]string{"reminder_interval"}).AddRow(2))

	hours, err := store.ReminderIntervalHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, hours)
}

func TestReminderIntervalHoursDefaultsWhenMissing(t *testing.T) {
	store, mock := newMockSettings(t)

	mock.ExpectQuery("SELECT reminder_interval FROM reminder_settings").
		WillReturnError(pgx.ErrNoRows)

	hours, err := store.ReminderIntervalHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultReminderIntervalHours, hours)
}
