package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/messaging"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

// intervalCacheTTL bounds how often the reminder-interval setting is re-read.
const intervalCacheTTL = time.Hour

// Appointments is the slice of the appointment store the worker needs.
type Appointments interface {
	ListUnremindedForDay(ctx context.Context, date string) ([]appointments.Appointment, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

// Settings reads the reminder lead time.
type Settings interface {
	ReminderIntervalHours(ctx context.Context) (int, error)
}

// SessionFlipper moves a customer's conversation into the reminder-response
// state, under the same lock as inbound messages.
type SessionFlipper interface {
	ForceReminderPrompt(ctx context.Context, phone string, appointmentID int64) error
}

// Metrics counts reminder delivery outcomes.
type Metrics interface {
	ObserveReminder(status string)
}

// Worker scans today's confirmed appointments once a minute and sends a
// reminder when the appointment enters its reminder window. Failures skip the
// appointment; the next pass retries anything still unmarked.
type Worker struct {
	appointments Appointments
	settings     Settings
	messenger    messaging.Messenger
	sessions     SessionFlipper
	metrics      Metrics
	clock        *schedule.Clock
	logger       *logging.Logger
	interval     time.Duration

	cachedHours  int
	cacheRefresh time.Time
}

// NewWorker creates a reminder worker polling once a minute.
func NewWorker(appts Appointments, settings Settings, messenger messaging.Messenger, sessions SessionFlipper, clock *schedule.Clock, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		appointments: appts,
		settings:     settings,
		messenger:    messenger,
		sessions:     sessions,
		clock:        clock,
		logger:       logger,
		interval:     time.Minute,
	}
}

// WithInterval sets the poll interval.
func (w *Worker) WithInterval(interval time.Duration) *Worker {
	w.interval = interval
	return w
}

// WithMetrics attaches reminder delivery counters.
func (w *Worker) WithMetrics(m Metrics) *Worker {
	w.metrics = m
	return w
}

// Start runs the worker. Blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting reminder worker", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker shutting down")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reminder pass. Exposed for tests and manual runs.
func (w *Worker) RunOnce(ctx context.Context) {
	hours := w.reminderHours(ctx)
	now := w.clock.Now()
	today := w.clock.TodayString()

	appts, err := w.appointments.ListUnremindedForDay(ctx, today)
	if err != nil {
		w.logger.Error("reminder: list appointments failed", "date", today, "error", err)
		return
	}

	for _, appt := range appts {
		due, err := w.isDue(appt, hours, now)
		if err != nil {
			w.logger.Warn("reminder: unparseable appointment time", "appointment_id", appt.ID, "error", err)
			continue
		}
		if !due {
			continue
		}

		if err := w.messenger.Send(ctx, appt.Phone, ReminderText(appt, w.clock)); err != nil {
			w.logger.Error("reminder: send failed", "appointment_id", appt.ID, "error", err)
			w.observe("failed")
			continue
		}
		w.observe("sent")
		if err := w.appointments.MarkReminderSent(ctx, appt.ID); err != nil {
			w.logger.Error("reminder: mark sent failed", "appointment_id", appt.ID, "error", err)
			continue
		}
		if err := w.sessions.ForceReminderPrompt(ctx, appt.Phone, appt.ID); err != nil {
			w.logger.Error("reminder: session flip failed", "appointment_id", appt.ID, "error", err)
		}
		w.logger.Info("reminder sent", "appointment_id", appt.ID, "phone", appt.Phone)
	}
}

// isDue reports whether now falls inside [start-interval, start].
func (w *Worker) isDue(appt appointments.Appointment, hours int, now time.Time) (bool, error) {
	day, err := w.clock.ParseDate(appt.Date)
	if err != nil {
		return false, err
	}
	t, err := time.Parse(schedule.ClockLayout, appt.Time)
	if err != nil {
		return false, fmt.Errorf("reminder: parse time %q: %w", appt.Time, err)
	}
	start := day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	windowOpen := start.Add(-time.Duration(hours) * time.Hour)
	return !now.Before(windowOpen) && !now.After(start), nil
}

func (w *Worker) observe(status string) {
	if w.metrics != nil {
		w.metrics.ObserveReminder(status)
	}
}

// reminderHours returns the configured lead time, cached for an hour.
func (w *Worker) reminderHours(ctx context.Context) int {
	now := w.clock.Now()
	if w.cachedHours > 0 && now.Sub(w.cacheRefresh) < intervalCacheTTL {
		return w.cachedHours
	}

	hours, err := w.settings.ReminderIntervalHours(ctx)
	if err != nil {
		w.logger.Warn("reminder: interval setting unavailable, using default", "error", err)
		hours = schedule.DefaultReminderIntervalHours
	}
	w.cachedHours = hours
	w.cacheRefresh = now
	return hours
}

// ReminderText renders the reminder message with "hoje"/"amanhã" phrasing.
func ReminderText(appt appointments.Appointment, clock *schedule.Clock) string {
	when := "em " + appt.Date
	today := clock.Today()
	switch appt.Date {
	case today.Format(schedule.DateLayout):
		when = "hoje"
	case today.AddDate(0, 0, 1).Format(schedule.DateLayout):
		when = "amanhã"
	}

	return fmt.Sprintf(
		"Olá *%s*! Lembrete do agendamento para *%s %s às %s*.\n\n"+
			"👉 Para confirmar sua presença, responda:\n"+
			"*1* - CONFIRMAR ✅\n"+
			"*2* - CANCELAR o agendamento ❌",
		appt.OwnerName, appt.PetName, when, appt.Time)
}
