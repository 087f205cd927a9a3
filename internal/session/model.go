package session

import (
	"time"

	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
)

// State identifies where a customer is in the conversation. Every inbound
// message is interpreted against the session's current state.
type State string

const (
	StateMenu                   State = "menu"
	StateNewCustomer            State = "new_customer"
	StateAddPet                 State = "add_pet"
	StateSelectPet              State = "select_pet"
	StateBookingService         State = "booking_service"
	StateBookingPetName         State = "booking_pet_name"
	StateBookingProfessional    State = "booking_professional"
	StateBookingDate            State = "booking_date"
	StateBookingManualDate      State = "booking_manual_date"
	StateBookingTime            State = "booking_time"
	StateBookingConfirm         State = "booking_confirm"
	StateCancellationChoice     State = "awaiting_cancellation_choice"
	StateCancellationConfirm    State = "awaiting_cancellation_confirmation"
	StateAwaitingReminderAnswer State = "awaiting_reminder_response"
)

// knownStates guards against unrecognized values loaded from storage.
var knownStates = map[State]struct{}{
	StateMenu:                   {},
	StateNewCustomer:            {},
	StateAddPet:                 {},
	StateSelectPet:              {},
	StateBookingService:         {},
	StateBookingPetName:         {},
	StateBookingProfessional:    {},
	StateBookingDate:            {},
	StateBookingManualDate:      {},
	StateBookingTime:            {},
	StateBookingConfirm:         {},
	StateCancellationChoice:     {},
	StateCancellationConfirm:    {},
	StateAwaitingReminderAnswer: {},
}

// Valid reports whether s is one of the defined conversation states.
func (s State) Valid() bool {
	_, ok := knownStates[s]
	return ok
}

// CancellationOption is one upcoming appointment offered for cancellation,
// keyed by the number the customer replies with.
type CancellationOption struct {
	AppointmentID int64  `json:"appointment_id"`
	Service       string `json:"service"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PetName       string `json:"pet_name"`
}

// TempData accumulates the in-progress booking draft plus the numbered
// option lists last shown to the customer, so a bare "2" can be resolved
// on the next message.
type TempData struct {
	CustomerID       int64   `json:"customer_id,omitempty"`
	OwnerName        string  `json:"owner_name,omitempty"`
	ServiceName      string  `json:"service_name,omitempty"`
	ServicePrice     float64 `json:"service_price,omitempty"`
	ServiceDuration  int     `json:"service_duration,omitempty"`
	PetName          string  `json:"pet_name,omitempty"`
	ProfessionalID   int64   `json:"professional_id,omitempty"`
	ProfessionalName string  `json:"professional_name,omitempty"`
	Date             string  `json:"date,omitempty"`
	DateDisplay      string  `json:"date_display,omitempty"`
	Time             string  `json:"time,omitempty"`

	ServiceOptions      []catalog.Service      `json:"service_options,omitempty"`
	ProfessionalOptions []catalog.Professional `json:"professional_options,omitempty"`
	PetOptions          []string               `json:"pet_options,omitempty"`
	DateOptions         []schedule.DateOption  `json:"date_options,omitempty"`
	TimeOptions         []string               `json:"time_options,omitempty"`
	CancellationOptions []CancellationOption   `json:"cancellation_options,omitempty"`

	CancelAppointmentID   int64 `json:"cancel_appointment_id,omitempty"`
	ReminderAppointmentID int64 `json:"reminder_appointment_id,omitempty"`
}

// Session is one customer's conversation, keyed by phone.
type Session struct {
	Phone       string     `json:"phone"`
	State       State      `json:"state"`
	Temp        TempData   `json:"temp"`
	PausedUntil *time.Time `json:"paused_until,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// New returns a fresh session at the menu.
func New(phone string) *Session {
	return &Session{Phone: phone, State: StateMenu}
}

// Reset returns the session to the menu and discards the draft.
func (s *Session) Reset() {
	s.State = StateMenu
	s.Temp = TempData{}
}

// Paused reports whether the bot is muted for this customer at the given
// instant. A paused session means a human attendant has the conversation.
func (s *Session) Paused(now time.Time) bool {
	return s.PausedUntil != nil && now.Before(*s.PausedUntil)
}

// Pause mutes the bot until now+d.
func (s *Session) Pause(now time.Time, d time.Duration) {
	until := now.Add(d)
	s.PausedUntil = &until
}
