package schedule

import "time"

// DateConfig governs which calendar days are offered as candidates.
// Weekday numbers follow the settings convention: Sunday = 0.
type DateConfig struct {
	DaysToShow        int   `json:"daysToShow"`
	ExcludeWeekends   bool  `json:"excludeWeekends"`
	ExcludedDays      []int `json:"excludedDays"`
	StartFromTomorrow bool  `json:"startFromTomorrow"`
}

// DefaultDateConfig mirrors the fallback applied when the settings row is
// missing or unreadable.
func DefaultDateConfig() DateConfig {
	return DateConfig{
		DaysToShow:        5,
		ExcludeWeekends:   false,
		ExcludedDays:      nil,
		StartFromTomorrow: true,
	}
}

// excludes reports whether the config rules out the weekday entirely.
func (c DateConfig) excludes(day time.Weekday) bool {
	if c.ExcludeWeekends && (day == time.Sunday || day == time.Saturday) {
		return true
	}
	for _, d := range c.ExcludedDays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// LunchBreak is a daily window during which no slot may start.
type LunchBreak struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayHours configures one weekday's raw slot grid. A nil entry in WeeklyHours
// means the business is closed that day.
type DayHours struct {
	StartTime       string      `json:"startTime"`
	EndTime         string      `json:"endTime"`
	IntervalMinutes int         `json:"interval"`
	LunchBreak      *LunchBreak `json:"lunchBreak"`
}

// WeeklyHours maps lowercase English weekday names to their hours.
type WeeklyHours map[string]*DayHours

// weekdayKeys indexes WeeklyHours by time.Weekday (Sunday = 0).
var weekdayKeys = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ForWeekday returns the configured hours for the weekday, or nil when the
// day is closed or unconfigured.
func (w WeeklyHours) ForWeekday(day time.Weekday) *DayHours {
	if w == nil {
		return nil
	}
	return w[weekdayKeys[day]]
}
