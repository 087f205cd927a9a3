package messaging

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

func discardLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func TestEvolutionSendFormatsPayload(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewEvolutionSender(srv.URL, "petcare", "secret", discardLogger())
	err := sender.Send(context.Background(), "(11) 99999-0000", "  Olá!  ")
	require.NoError(t, err)

	assert.Equal(t, "/message/sendText/petcare", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "5511999990000@s.whatsapp.net", gotPayload["number"])
	assert.Equal(t, "Olá!", gotPayload["text"])
}

func TestEvolutionSendRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"instance offline"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewEvolutionSender(srv.URL, "petcare", "secret", discardLogger())
	err := sender.Send(context.Background(), "5511999990000", "oi")
	assert.ErrorContains(t, err, "status 502")
	assert.Equal(t, 3, calls)
}

func TestEvolutionSendRejectsBadInput(t *testing.T) {
	sender := NewEvolutionSender("http://example.invalid", "petcare", "secret", discardLogger())

	assert.ErrorIs(t, sender.Send(context.Background(), "123", "oi"), ErrInvalidPhone)
	assert.Error(t, sender.Send(context.Background(), "5511999990000", "   "))
}

func TestConnectionState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/connectionState/petcare", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"instance": map[string]any{"state": "open"}})
	}))
	defer srv.Close()

	sender := NewEvolutionSender(srv.URL, "petcare", "secret", discardLogger())
	state, err := sender.ConnectionState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", state)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "5511999990000", want: "5511999990000"},
		{in: "11999990000", want: "5511999990000"},
		{in: "(11) 99999-0000", want: "5511999990000"},
		{in: "123", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPhone, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
