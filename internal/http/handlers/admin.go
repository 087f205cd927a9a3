package handlers

import (
	"context"
	"net/http"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

type catalogReader interface {
	ListServices(ctx context.Context) ([]catalog.Service, error)
	ListProfessionals(ctx context.Context) ([]catalog.Professional, error)
}

type settingsReader interface {
	DateConfig(ctx context.Context) (schedule.DateConfig, error)
	WeeklyHours(ctx context.Context) (schedule.WeeklyHours, error)
	ReminderIntervalHours(ctx context.Context) (int, error)
}

type statsReader interface {
	CountStats(ctx context.Context, today string) (appointments.Stats, error)
}

// AdminHandler serves the read endpoints behind the attendant dashboard.
type AdminHandler struct {
	catalog  catalogReader
	settings settingsReader
	stats    statsReader
	clock    *schedule.Clock
	logger   *logging.Logger
}

// NewAdminHandler wires the dashboard read API.
func NewAdminHandler(cat catalogReader, settings settingsReader, stats statsReader, clock *schedule.Clock, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{
		catalog:  cat,
		settings: settings,
		stats:    stats,
		clock:    clock,
		logger:   logger,
	}
}

// Services lists the service catalog.
func (h *AdminHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		h.fail(w, "list services", err)
		return
	}
	if services == nil {
		services = []catalog.Service{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"services": services})
}

// Professionals lists the groomers.
func (h *AdminHandler) Professionals(w http.ResponseWriter, r *http.Request) {
	professionals, err := h.catalog.ListProfessionals(r.Context())
	if err != nil {
		h.fail(w, "list professionals", err)
		return
	}
	if professionals == nil {
		professionals = []catalog.Professional{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"professionals": professionals})
}

// DateSettings returns the date-offering configuration.
func (h *AdminHandler) DateSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.DateConfig(r.Context())
	if err != nil {
		h.fail(w, "load date settings", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// TimeSettings returns the weekly opening hours.
func (h *AdminHandler) TimeSettings(w http.ResponseWriter, r *http.Request) {
	hours, err := h.settings.WeeklyHours(r.Context())
	if err != nil {
		h.fail(w, "load time settings", err)
		return
	}
	if hours == nil {
		hours = schedule.WeeklyHours{}
	}
	respondJSON(w, http.StatusOK, hours)
}

// ReminderSettings returns the reminder lead time.
func (h *AdminHandler) ReminderSettings(w http.ResponseWriter, r *http.Request) {
	hours, err := h.settings.ReminderIntervalHours(r.Context())
	if err != nil {
		h.fail(w, "load reminder settings", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"reminder_interval": hours})
}

// Stats returns the dashboard appointment counters.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.CountStats(r.Context(), h.clock.TodayString())
	if err != nil {
		h.fail(w, "count stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) fail(w http.ResponseWriter, action string, err error) {
	h.logger.Error("admin: "+action+" failed", "error", err)
	respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
