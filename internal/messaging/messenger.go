package messaging

import (
	"context"
	"errors"
	"strings"
)

// Messenger delivers one WhatsApp text to a phone number. Delivery is
// fire-and-forget from the dialogue's point of view: failures are logged by
// the caller, never retried into the conversation.
type Messenger interface {
	Send(ctx context.Context, phone, text string) error
}

// ErrInvalidPhone is returned when a number has too few digits to route.
var ErrInvalidPhone = errors.New("messaging: invalid phone number")

// NormalizePhone strips non-digits and prefixes the Brazilian country code
// when absent.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 {
		return "", ErrInvalidPhone
	}
	if !strings.HasPrefix(digits, "55") {
		digits = "55" + digits
	}
	return digits, nil
}
