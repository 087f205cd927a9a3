package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

const notificationBufferLimit = 200

// Notification is one event queued for the attendant dashboard.
type Notification struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationBuffer holds dashboard events in memory until the frontend
// polls them. It also satisfies the dialogue controller's cancellation
// notifier.
type NotificationBuffer struct {
	mu     sync.Mutex
	queue  []Notification
	logger *logging.Logger
}

// NewNotificationBuffer creates an empty buffer.
func NewNotificationBuffer(logger *logging.Logger) *NotificationBuffer {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotificationBuffer{logger: logger}
}

// Push appends an event, dropping the oldest when the buffer is full.
func (b *NotificationBuffer) Push(n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, n)
	if len(b.queue) > notificationBufferLimit {
		b.queue = b.queue[len(b.queue)-notificationBufferLimit:]
	}
}

// Drain returns all queued events and empties the buffer.
func (b *NotificationBuffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.queue
	b.queue = nil
	return out
}

// NotifyCancellation queues a cancellation event for the dashboard.
func (b *NotificationBuffer) NotifyCancellation(_ context.Context, appt appointments.Appointment) {
	payload, err := json.Marshal(appt)
	if err != nil {
		b.logger.Warn("notifications: encode cancellation failed", "appointment_id", appt.ID, "error", err)
		return
	}
	b.Push(Notification{Type: "cancellation", Payload: payload})
}

// HandleIngest accepts internal events (POST /webhook/internal) from other
// processes and queues them for the dashboard.
func (b *NotificationBuffer) HandleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil || len(body) == 0 || !json.Valid(body) {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	var envelope struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(body, &envelope)
	if envelope.Type == "" {
		envelope.Type = "event"
	}

	b.Push(Notification{Type: envelope.Type, Payload: body})
	respondJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

// HandleDrain serves GET /api/notifications: the frontend polls and the
// buffer empties on each read.
func (b *NotificationBuffer) HandleDrain(w http.ResponseWriter, r *http.Request) {
	notifications := b.Drain()
	if notifications == nil {
		notifications = []Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
