package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

// sendDelayMillis is the typing delay Evolution applies before delivering.
const sendDelayMillis = 1000

// EvolutionSender posts WhatsApp messages through an Evolution API instance.
type EvolutionSender struct {
	baseURL    string
	instance   string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewEvolutionSender builds a sender for the Evolution API.
func NewEvolutionSender(baseURL, instance, apiKey string, logger *logging.Logger) *EvolutionSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &EvolutionSender{
		baseURL:  strings.TrimRight(baseURL, "/"),
		instance: instance,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ Messenger = (*EvolutionSender)(nil)

// Send dispatches a single text message, retrying transient failures.
func (s *EvolutionSender) Send(ctx context.Context, phone, text string) error {
	if s.apiKey == "" {
		return errors.New("messaging: evolution api key missing")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("messaging: text required")
	}

	number, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"number": number + "@s.whatsapp.net",
		"text":   strings.TrimSpace(text),
		"delay":  sendDelayMillis,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messaging: marshal evolution payload: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", s.baseURL, s.instance)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("messaging: build evolution request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("apikey", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("whatsapp message sent", "to", number)
				return nil
			}
			lastErr = fmt.Errorf("messaging: evolution send failed: status %d, body %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	s.logger.Error("failed to send whatsapp message", "to", number, "error", lastErr)
	return lastErr
}

// ConnectionState reports whether the Evolution instance has an open
// WhatsApp connection.
func (s *EvolutionSender) ConnectionState(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/instance/connectionState/%s", s.baseURL, s.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("messaging: build state request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("messaging: evolution state check: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("messaging: decode state response: %w", err)
	}
	return parsed.Instance.State, nil
}
