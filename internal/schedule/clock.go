package schedule

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for civil dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for slot times.
	ClockLayout = "15:04"
)

// Clock answers every "today" and "day of week" question in the business's
// fixed timezone. All date arithmetic in the engine goes through it; computing
// weekdays against the host timezone shifts availability by a day near
// midnight.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a clock pinned to the given IANA timezone.
func NewClock(tz string) (*Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("schedule: load business timezone: %w", err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewClockWithNow creates a clock with an injected time source for tests.
func NewClockWithNow(tz string, now func() time.Time) (*Clock, error) {
	c, err := NewClock(tz)
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Now returns the current instant in the business timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns midnight of the current business-local day.
func (c *Clock) Today() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}

// TodayString returns the current business-local day as YYYY-MM-DD.
func (c *Clock) TodayString() string {
	return c.Today().Format(DateLayout)
}

// ParseDate interprets a YYYY-MM-DD string as midnight in the business timezone.
func (c *Clock) ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse date %q: %w", date, err)
	}
	return t, nil
}

// Weekday returns the business-local day of week for a YYYY-MM-DD string.
func (c *Clock) Weekday(date string) (time.Weekday, error) {
	t, err := c.ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// clockToMinutes converts "HH:MM" to minutes from midnight.
func clockToMinutes(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("schedule: parse clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
