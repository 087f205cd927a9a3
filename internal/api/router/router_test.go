package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/internal/http/handlers"
	"github.com/wolfman30/petcare-booking-platform/internal/messaging"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

type stubProcessor struct{ reply string }

func (s *stubProcessor) ProcessMessage(context.Context, string, string) string { return s.reply }

type stubMessenger struct{ sent int }

func (s *stubMessenger) Send(context.Context, string, string) error {
	s.sent++
	return nil
}

type stubRecorder struct{}

func (stubRecorder) Record(context.Context, string, string, messaging.Direction) error { return nil }

type stubCatalog struct{}

func (stubCatalog) ListServices(context.Context) ([]catalog.Service, error) {
	return []catalog.Service{{ID: 1, Name: "Banho", Price: 40, DurationMinutes: 60}}, nil
}

func (stubCatalog) ListProfessionals(context.Context) ([]catalog.Professional, error) {
	return nil, nil
}

type stubSettings struct{}

func (stubSettings) DateConfig(context.Context) (schedule.DateConfig, error) {
	return schedule.DefaultDateConfig(), nil
}

func (stubSettings) WeeklyHours(context.Context) (schedule.WeeklyHours, error) { return nil, nil }

func (stubSettings) ReminderIntervalHours(context.Context) (int, error) { return 24, nil }

type stubStats struct{}

func (stubStats) CountStats(context.Context, string) (appointments.Stats, error) {
	return appointments.Stats{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.NewWithWriter("error", io.Discard)

	clock, err := schedule.NewClock("America/Sao_Paulo")
	require.NoError(t, err)

	notifications := handlers.NewNotificationBuffer(logger)
	webhook := handlers.NewEvolutionWebhookHandler(&stubProcessor{reply: "ok"}, &stubMessenger{}, stubRecorder{}, nil, logger)
	admin := handlers.NewAdminHandler(stubCatalog{}, stubSettings{}, stubStats{}, clock, logger)

	return New(Config{
		Logger:             logger,
		Webhook:            webhook,
		Admin:              admin,
		Notifications:      notifications,
		AdminAuthSecret:    "routersecret",
		CORSAllowedOrigins: []string{"https://painel.example.com"},
	})
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "attendant",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebhookRouteIsPublic(t *testing.T) {
	r := newTestRouter(t)

	body := `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511988887777@s.whatsapp.net", "fromMe": false},
			"message": {"conversation": "oi"}
		}
	}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/evolution", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/api/notifications",
		"/admin/services",
		"/admin/professionals",
		"/admin/date-settings",
		"/admin/time-settings",
		"/admin/reminder-settings",
		"/admin/stats",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminRouteWithToken(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/services", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "routersecret"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Banho")
}

func TestInternalWebhookFeedsNotifications(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/internal",
		strings.NewReader(`{"type":"new_appointment","appointment_id":9}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "routersecret"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new_appointment")
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/admin/stats", nil)
	req.Header.Set("Origin", "https://painel.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://painel.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
