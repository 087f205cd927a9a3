package nlu

import "strings"

// Intent is a coarse classification of a free-text message. The state machine
// drives on numeric menu choices; intents exist for the attendant view and
// future shortcuts.
type Intent string

const (
	IntentNewAppointment    Intent = "new_appointment"
	IntentCancelAppointment Intent = "cancel_appointment"
	IntentTalkToAgent       Intent = "talk_to_agent"
	IntentUnknown           Intent = "unknown"
)

// Keyword tables, checked in order. Cancellation wins over booking because
// "cancelar agendamento" contains both stems.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentTalkToAgent, []string{"atendente", "falar com", "pessoa", "humano"}},
	{IntentCancelAppointment, []string{"cancelar", "desmarcar", "cancelamento"}},
	{IntentNewAppointment, []string{"agendar", "marcar", "agendamento", "horario", "horário"}},
}

// Classify maps a message to an intent by keyword match.
func Classify(message string) Intent {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return IntentUnknown
	}
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.intent
			}
		}
	}
	return IntentUnknown
}
