package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/petcare-booking-platform/internal/http/handlers"
	"github.com/wolfman30/petcare-booking-platform/internal/http/middleware"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

// Config carries everything the HTTP surface needs.
type Config struct {
	Logger        *logging.Logger
	Webhook       *handlers.EvolutionWebhookHandler
	Admin         *handlers.AdminHandler
	Notifications *handlers.NotificationBuffer

	// MetricsHandler serves GET /metrics; usually promhttp.Handler().
	MetricsHandler http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New builds the chi router with the public webhook surface and the
// JWT-guarded attendant API.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Post("/webhook/evolution", cfg.Webhook.Handle)
	r.Post("/webhook/internal", cfg.Notifications.HandleIngest)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminJWT(cfg.AdminAuthSecret))

		r.Get("/api/notifications", cfg.Notifications.HandleDrain)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/services", cfg.Admin.Services)
			r.Get("/professionals", cfg.Admin.Professionals)
			r.Get("/date-settings", cfg.Admin.DateSettings)
			r.Get("/time-settings", cfg.Admin.TimeSettings)
			r.Get("/reminder-settings", cfg.Admin.ReminderSettings)
			r.Get("/stats", cfg.Admin.Stats)
		})
	})

	return r
}
