package schedule

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

const (
	// DefaultServiceDurationMinutes sizes a slot when the service row cannot
	// be resolved.
	DefaultServiceDurationMinutes = 60
	// sameDayLeadTimeMinutes is the minimum gap between "now" and a same-day
	// slot's start.
	sameDayLeadTimeMinutes = 30
	// safetyHorizonDays bounds the candidate-date walk so a fully closed
	// calendar still terminates.
	safetyHorizonDays = 60
)

// Manual date entry failures, mapped to corrective prompts by the dialogue.
var (
	ErrManualDateFormat      = errors.New("schedule: manual date must be DD/MM/YYYY")
	ErrManualDatePast        = errors.New("schedule: manual date is in the past")
	ErrManualDateUnavailable = errors.New("schedule: manual date falls on an unavailable weekday")
)

var manualDatePattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

var weekdayNamesPT = [7]string{
	"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira",
	"Quinta-feira", "Sexta-feira", "Sábado",
}

var monthNamesPT = [13]string{
	"", "Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// DateOption is one bookable calendar day offered to the customer.
type DateOption struct {
	Date     string // YYYY-MM-DD
	DayLabel string // "Hoje", "Amanhã" or the weekday name
	Display  string // "02 de Setembro de 2026"
}

// ServiceSource resolves services by name.
type ServiceSource interface {
	GetServiceByName(ctx context.Context, name string) (*catalog.Service, error)
}

// BookingSource reports the occupied intervals of a professional's day.
type BookingSource interface {
	BookedIntervals(ctx context.Context, date string, professionalID int64) ([]appointments.BookedInterval, error)
}

// SettingsSource supplies the scheduling configuration rows.
type SettingsSource interface {
	DateConfig(ctx context.Context) (DateConfig, error)
	WeeklyHours(ctx context.Context) (WeeklyHours, error)
}

// Engine computes bookable dates and free time slots for a professional and
// service. It only reads; confirmation-time writes re-validate separately.
// Read failures degrade to empty results so a storage hiccup never takes the
// dialogue down.
type Engine struct {
	services ServiceSource
	bookings BookingSource
	settings SettingsSource
	clock    *Clock
	logger   *logging.Logger
}

// NewEngine creates an availability engine.
func NewEngine(services ServiceSource, bookings BookingSource, settings SettingsSource, clock *Clock, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		services: services,
		bookings: bookings,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}
}

// Clock exposes the engine's business clock so callers share one notion of
// "today".
func (e *Engine) Clock() *Clock {
	return e.clock
}

// CandidateDates walks forward from today (or tomorrow) collecting days that
// pass the weekday filter and still have at least one free slot, until
// DaysToShow days are found or the safety horizon is exhausted.
func (e *Engine) CandidateDates(ctx context.Context, professionalID int64, serviceName string) []DateOption {
	cfg, err := e.settings.DateConfig(ctx)
	if err != nil {
		e.logger.Warn("schedule: date settings unavailable, using defaults", "error", err)
	}

	today := e.clock.Today()
	offset := 0
	if cfg.StartFromTomorrow {
		offset = 1
	}

	var options []DateOption
	for scanned := 0; len(options) < cfg.DaysToShow && scanned < safetyHorizonDays; scanned++ {
		day := today.AddDate(0, 0, offset)
		weekday := day.Weekday()
		date := day.Format(DateLayout)

		if !cfg.excludes(weekday) && e.HasFreeSlot(ctx, date, professionalID, serviceName) {
			label := weekdayNamesPT[weekday]
			if offset == 0 {
				label = "Hoje"
			} else if offset == 1 && cfg.StartFromTomorrow {
				label = "Amanhã"
			}
			options = append(options, DateOption{
				Date:     date,
				DayLabel: label,
				Display:  displayDate(day),
			})
		}
		offset++
	}
	return options
}

// FreeSlots returns the ascending HH:MM start times still bookable on the
// date for the professional, sized by the service's duration.
func (e *Engine) FreeSlots(ctx context.Context, date string, professionalID int64, serviceName string) []string {
	duration := e.serviceDuration(ctx, serviceName)

	weekday, err := e.clock.Weekday(date)
	if err != nil {
		e.logger.Warn("schedule: unparseable date", "date", date, "error", err)
		return nil
	}

	hours, err := e.settings.WeeklyHours(ctx)
	if err != nil {
		e.logger.Warn("schedule: time settings unavailable", "error", err)
		return nil
	}
	day := hours.ForWeekday(weekday)
	if day == nil {
		return nil
	}

	booked, err := e.bookings.BookedIntervals(ctx, date, professionalID)
	if err != nil {
		// Offering slots blind could double-book, so a read failure means
		// no availability this pass.
		e.logger.Warn("schedule: booked intervals unavailable", "date", date, "error", err)
		return nil
	}

	var minStart int
	if date == e.clock.TodayString() {
		now := e.clock.Now()
		minStart = now.Hour()*60 + now.Minute() + sameDayLeadTimeMinutes
	}

	var slots []string
	for _, start := range e.rawSlots(day) {
		if start < minStart {
			continue
		}
		end := start + duration
		conflict := false
		for _, b := range booked {
			if start < b.EndMinutes && end > b.StartMinutes {
				conflict = true
				break
			}
		}
		if !conflict {
			slots = append(slots, minutesToClock(start))
		}
	}
	return slots
}

// HasFreeSlot reports whether the date has at least one bookable slot.
func (e *Engine) HasFreeSlot(ctx context.Context, date string, professionalID int64, serviceName string) bool {
	return len(e.FreeSlots(ctx, date, professionalID, serviceName)) > 0
}

// ValidateManualDate checks a customer-typed DD/MM/YYYY date against the
// calendar rules and returns it as YYYY-MM-DD.
func (e *Engine) ValidateManualDate(ctx context.Context, input string) (string, error) {
	m := manualDatePattern.FindStringSubmatch(input)
	if m == nil {
		return "", ErrManualDateFormat
	}
	iso := fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
	day, err := e.clock.ParseDate(iso)
	if err != nil {
		return "", ErrManualDateFormat
	}
	if day.Before(e.clock.Today()) {
		return "", ErrManualDatePast
	}

	cfg, err := e.settings.DateConfig(ctx)
	if err != nil {
		e.logger.Warn("schedule: date settings unavailable, using defaults", "error", err)
	}
	if cfg.excludes(day.Weekday()) {
		return "", ErrManualDateUnavailable
	}
	return iso, nil
}

// serviceDuration resolves the booking footprint, degrading to the default
// instead of failing the availability query.
func (e *Engine) serviceDuration(ctx context.Context, serviceName string) int {
	svc, err := e.services.GetServiceByName(ctx, serviceName)
	if err != nil {
		e.logger.Warn("schedule: service lookup failed, using default duration", "service", serviceName, "error", err)
		return DefaultServiceDurationMinutes
	}
	if svc == nil || svc.DurationMinutes <= 0 {
		return DefaultServiceDurationMinutes
	}
	return svc.DurationMinutes
}

// rawSlots generates the day's grid of start times in minutes from midnight,
// with lunch-break starts removed.
func (e *Engine) rawSlots(day *DayHours) []int {
	startClock := day.StartTime
	if startClock == "" {
		startClock = "09:00"
	}
	endClock := day.EndTime
	if endClock == "" {
		endClock = "18:00"
	}
	interval := day.IntervalMinutes
	if interval <= 0 {
		interval = 60
	}

	start, err := clockToMinutes(startClock)
	if err != nil {
		e.logger.Warn("schedule: bad startTime in hours config", "error", err)
		return nil
	}
	end, err := clockToMinutes(endClock)
	if err != nil {
		e.logger.Warn("schedule: bad endTime in hours config", "error", err)
		return nil
	}

	lunchStart, lunchEnd := -1, -1
	if lb := day.LunchBreak; lb != nil && lb.Start != "" && lb.End != "" {
		ls, err1 := clockToMinutes(lb.Start)
		le, err2 := clockToMinutes(lb.End)
		if err1 == nil && err2 == nil {
			lunchStart, lunchEnd = ls, le
		}
	}

	var slots []int
	for cur := start; cur < end; cur += interval {
		if lunchStart >= 0 && cur >= lunchStart && cur < lunchEnd {
			continue
		}
		slots = append(slots, cur)
	}
	return slots
}

func displayDate(day time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", day.Day(), monthNamesPT[day.Month()], day.Year())
}
