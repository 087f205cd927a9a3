package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/petcare-booking-platform/internal/messaging"
	observemetrics "github.com/wolfman30/petcare-booking-platform/internal/observability/metrics"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

// messageProcessor is the dialogue controller surface the webhook needs.
type messageProcessor interface {
	ProcessMessage(ctx context.Context, phone, text string) string
}

// messageRecorder logs conversation traffic best-effort.
type messageRecorder interface {
	Record(ctx context.Context, phone, body string, direction messaging.Direction) error
}

// EvolutionWebhookHandler receives inbound WhatsApp events from the
// Evolution API and runs them through the conversation controller.
type EvolutionWebhookHandler struct {
	processor messageProcessor
	messenger messaging.Messenger
	log       messageRecorder
	metrics   *observemetrics.BotMetrics
	logger    *logging.Logger
}

// NewEvolutionWebhookHandler wires the webhook. log and metrics may be nil.
func NewEvolutionWebhookHandler(processor messageProcessor, messenger messaging.Messenger, log messageRecorder, metrics *observemetrics.BotMetrics, logger *logging.Logger) *EvolutionWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &EvolutionWebhookHandler{
		processor: processor,
		messenger: messenger,
		log:       log,
		metrics:   metrics,
		logger:    logger,
	}
}

type evolutionEvent struct {
	Event string `json:"event"`
	Data  struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage *struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
	} `json:"data"`
}

// Handle processes one Evolution webhook delivery.
func (h *EvolutionWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var event evolutionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.metrics.ObserveInbound("bad_payload")
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if event.Event != "messages.upsert" {
		h.metrics.ObserveInbound("ignored_event")
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	text := event.Data.Message.Conversation
	if text == "" && event.Data.Message.ExtendedTextMessage != nil {
		text = event.Data.Message.ExtendedTextMessage.Text
	}
	phone, _, _ := strings.Cut(event.Data.Key.RemoteJid, "@")

	// Echoes of our own sends and empty payloads are acknowledged, not
	// processed.
	if event.Data.Key.FromMe || strings.TrimSpace(text) == "" || phone == "" {
		h.metrics.ObserveInbound("skipped")
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx := r.Context()
	h.recordMessage(ctx, phone, text, messaging.DirectionReceived)

	reply := h.processor.ProcessMessage(ctx, phone, text)
	h.metrics.ObserveInbound("processed")

	if reply != "" {
		if err := h.messenger.Send(ctx, phone, reply); err != nil {
			// Delivery failure does not roll the session back; the state
			// already advanced.
			h.logger.Error("webhook: reply delivery failed", "phone", phone, "error", err)
			h.metrics.ObserveOutbound("failed")
		} else {
			h.metrics.ObserveOutbound("sent")
			h.recordMessage(ctx, phone, reply, messaging.DirectionSent)
		}
	}

	h.metrics.ObserveWebhookLatency("evolution", time.Since(start).Seconds())
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *EvolutionWebhookHandler) recordMessage(ctx context.Context, phone, body string, direction messaging.Direction) {
	if h.log == nil {
		return
	}
	if err := h.log.Record(ctx, phone, body, direction); err != nil {
		h.logger.Warn("webhook: message log failed", "phone", phone, "error", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
