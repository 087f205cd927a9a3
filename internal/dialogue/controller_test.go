package dialogue

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/internal/customers"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/internal/session"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

const testPhone = "5511999990000"

type fakeCatalog struct {
	services      []catalog.Service
	professionals []catalog.Professional
}

func (f *fakeCatalog) ListServices(ctx context.Context) ([]catalog.Service, error) {
	return f.services, nil
}

func (f *fakeCatalog) ListProfessionals(ctx context.Context) ([]catalog.Professional, error) {
	return f.professionals, nil
}

type fakeCustomers struct {
	customer    *customers.Customer
	pets        []customers.Pet
	createdName string
	createdPets []string
}

func (f *fakeCustomers) GetByPhone(ctx context.Context, phone string) (*customers.Customer, error) {
	return f.customer, nil
}

func (f *fakeCustomers) Create(ctx context.Context, phone, ownerName string) (int64, error) {
	f.createdName = ownerName
	return 7, nil
}

func (f *fakeCustomers) ListPets(ctx context.Context, customerID int64) ([]customers.Pet, error) {
	return f.pets, nil
}

func (f *fakeCustomers) CreatePet(ctx context.Context, customerID int64, name string) (int64, error) {
	f.createdPets = append(f.createdPets, name)
	return int64(len(f.createdPets)), nil
}

type fakeAppointments struct {
	created   []appointments.Appointment
	createErr error
	nextID    int64
	future    []appointments.Appointment
	canceled  []int64
	cancelErr error
}

func (f *fakeAppointments) CreateConfirmed(ctx context.Context, a *appointments.Appointment, durationMinutes int) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	a.ID = f.nextID
	a.Status = appointments.StatusConfirmed
	f.created = append(f.created, *a)
	return f.nextID, nil
}

func (f *fakeAppointments) ListFutureByPhone(ctx context.Context, phone, fromDate string) ([]appointments.Appointment, error) {
	return f.future, nil
}

func (f *fakeAppointments) GetByID(ctx context.Context, id int64) (*appointments.Appointment, error) {
	for i := range f.future {
		if f.future[i].ID == id {
			return &f.future[i], nil
		}
	}
	return nil, nil
}

func (f *fakeAppointments) Cancel(ctx context.Context, id int64, phone string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceled = append(f.canceled, id)
	return nil
}

type fakeAvailability struct {
	dates  []schedule.DateOption
	slots  []string
	manual map[string]string // input -> ISO date; absent means format error
}

func (f *fakeAvailability) CandidateDates(ctx context.Context, professionalID int64, serviceName string) []schedule.DateOption {
	return f.dates
}

func (f *fakeAvailability) FreeSlots(ctx context.Context, date string, professionalID int64, serviceName string) []string {
	return f.slots
}

func (f *fakeAvailability) ValidateManualDate(ctx context.Context, input string) (string, error) {
	switch input {
	case "01/01/2020":
		return "", schedule.ErrManualDatePast
	case "13/09/2026":
		return "", schedule.ErrManualDateUnavailable
	}
	if iso, ok := f.manual[input]; ok {
		return iso, nil
	}
	return "", schedule.ErrManualDateFormat
}

type memSessions struct {
	m map[string]*session.Session
}

func (s *memSessions) Load(ctx context.Context, phone string) *session.Session {
	if sess, ok := s.m[phone]; ok {
		return sess
	}
	sess := session.New(phone)
	s.m[phone] = sess
	return sess
}

func (s *memSessions) Save(ctx context.Context, sess *session.Session) error {
	s.m[sess.Phone] = sess
	return nil
}

type fakeNotifier struct {
	cancellations []appointments.Appointment
}

func (f *fakeNotifier) NotifyCancellation(ctx context.Context, appt appointments.Appointment) {
	f.cancellations = append(f.cancellations, appt)
}

type fakeMetrics struct {
	confirmed int
	canceled  int
}

func (f *fakeMetrics) ObserveBookingConfirmed() { f.confirmed++ }
func (f *fakeMetrics) ObserveBookingCanceled()  { f.canceled++ }

type fixture struct {
	controller   *Controller
	catalog      *fakeCatalog
	customers    *fakeCustomers
	appointments *fakeAppointments
	availability *fakeAvailability
	sessions     *memSessions
	notifier     *fakeNotifier
	metrics      *fakeMetrics
	now          *time.Time
}

func (f *fixture) session() *session.Session {
	return f.sessions.m[testPhone]
}

func (f *fixture) send(text string) string {
	return f.controller.ProcessMessage(context.Background(), testPhone, text)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	now := time.Date(2026, 9, 7, 10, 0, 0, 0, loc)

	f := &fixture{
		catalog: &fakeCatalog{
			services: []catalog.Service{
				{ID: 1, Name: "Banho", Price: 40, DurationMinutes: 60},
				{ID: 2, Name: "Banho E Tosa Higiênica", Price: 70, DurationMinutes: 90},
			},
			professionals: []catalog.Professional{
				{ID: 1, Name: "Lais"},
				{ID: 2, Name: "Bruno"},
			},
		},
		customers:    &fakeCustomers{},
		appointments: &fakeAppointments{},
		availability: &fakeAvailability{
			dates: []schedule.DateOption{
				{Date: "2026-09-10", DayLabel: "Quinta-feira", Display: "10 de Setembro de 2026"},
				{Date: "2026-09-11", DayLabel: "Sexta-feira", Display: "11 de Setembro de 2026"},
			},
			slots:  []string{"09:00", "10:00", "11:00"},
			manual: map[string]string{"10/09/2026": "2026-09-10"},
		},
		sessions: &memSessions{m: map[string]*session.Session{}},
		notifier: &fakeNotifier{},
		metrics:  &fakeMetrics{},
		now:      &now,
	}

	clock, err := schedule.NewClockWithNow("America/Sao_Paulo", func() time.Time { return *f.now })
	require.NoError(t, err)

	f.controller = NewController(
		f.catalog, f.customers, f.appointments, f.availability,
		f.sessions, session.NewPhoneLocks(), f.notifier, clock,
		logging.NewWithWriter("error", io.Discard),
		"Rua Example, 123 - Centro",
	).WithMetrics(f.metrics)
	return f
}

func TestMenuRepeatsOnUnknownInput(t *testing.T) {
	f := newFixture(t)

	reply := f.send("oi, tudo bem?")
	assert.Equal(t, msgMenu, reply)
	assert.Equal(t, session.StateMenu, f.session().State)
}

func TestTalkToAgentPausesForAnHour(t *testing.T) {
	f := newFixture(t)

	reply := f.send("3")
	assert.Contains(t, reply, "pausado por 60 minutos")

	// Paused: no reply at all.
	assert.Empty(t, f.send("1"))

	*f.now = f.now.Add(10 * time.Minute)
	assert.Empty(t, f.send("1"))

	// Past the window the bot answers again.
	*f.now = f.now.Add(51 * time.Minute)
	assert.NotEmpty(t, f.send("1"))
}

func TestVoltarResetsFromAnyState(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateBookingTime
	sess.Temp.ServiceName = "Banho"
	sess.Temp.TimeOptions = []string{"09:00"}

	reply := f.send("VOLTAR")
	assert.Equal(t, msgMenu, reply)
	assert.Equal(t, session.StateMenu, f.session().State)
	assert.Equal(t, session.TempData{}, f.session().Temp)
}

func TestNewCustomerBookingRoundTrip(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, msgAskOwnerName, f.send("1"))
	assert.Equal(t, session.StateNewCustomer, f.session().State)

	assert.Equal(t, msgAskFirstPet, f.send("maria"))
	assert.Equal(t, "Maria", f.session().Temp.OwnerName)

	reply := f.send("rex")
	assert.Contains(t, reply, "Qual serviço deseja agendar?")
	assert.Contains(t, reply, "*1* - Banho")
	assert.Equal(t, "Maria", f.customers.createdName)
	assert.Equal(t, []string{"Rex"}, f.customers.createdPets)

	reply = f.send("1")
	assert.Contains(t, reply, "Com qual profissional deseja agendar?")
	assert.Equal(t, "Banho", f.session().Temp.ServiceName)

	reply = f.send("1")
	assert.Contains(t, reply, "Qual a data que deseja marcar?")
	assert.Contains(t, reply, "Quinta-feira")
	assert.Equal(t, "Lais", f.session().Temp.ProfessionalName)

	reply = f.send("1")
	assert.Contains(t, reply, "Agendamento em: *Quinta-feira, 10 de Setembro de 2026*")
	assert.Contains(t, reply, "*1* - 09:00")

	reply = f.send("1")
	assert.Contains(t, reply, "Confirmar dados")
	assert.Contains(t, reply, "DATA: 10/09/2026 às 09:00")

	reply = f.send("1")
	assert.Contains(t, reply, "✅ *Agendamento Confirmado!*")
	assert.Contains(t, reply, "*Código do agendamento:* #1")
	assert.Contains(t, reply, "R$ 40,00")
	assert.Contains(t, reply, "Rua Example, 123 - Centro")
	assert.Contains(t, reply, msgMenu)

	// Exactly one confirmed appointment matching what was displayed.
	require.Len(t, f.appointments.created, 1)
	got := f.appointments.created[0]
	assert.Equal(t, "2026-09-10", got.Date)
	assert.Equal(t, "09:00", got.Time)
	assert.Equal(t, int64(1), got.ProfessionalID)
	assert.Equal(t, appointments.StatusConfirmed, got.Status)

	assert.Equal(t, session.StateMenu, f.session().State)
	assert.Equal(t, session.TempData{}, f.session().Temp)
	assert.Equal(t, 1, f.metrics.confirmed)
}

func TestExistingCustomerSelectsPet(t *testing.T) {
	f := newFixture(t)
	f.customers.customer = &customers.Customer{ID: 3, Phone: testPhone, OwnerName: "Maria"}
	f.customers.pets = []customers.Pet{
		{ID: 1, CustomerID: 3, Name: "Rex"},
		{ID: 2, CustomerID: 3, Name: "Luna"},
	}

	reply := f.send("1")
	assert.Contains(t, reply, "Qual dos seus pets deseja agendar?")
	assert.Contains(t, reply, "*2* - Luna")
	assert.Contains(t, reply, "*0* - Adicionar outro pet")

	reply = f.send("2")
	assert.Contains(t, reply, "Qual serviço deseja agendar?")
	assert.Equal(t, "Luna", f.session().Temp.PetName)
}

func TestExistingCustomerAddsAnotherPet(t *testing.T) {
	f := newFixture(t)
	f.customers.customer = &customers.Customer{ID: 3, Phone: testPhone, OwnerName: "Maria"}
	f.customers.pets = []customers.Pet{{ID: 1, CustomerID: 3, Name: "Rex"}}

	f.send("1")
	assert.Equal(t, msgAskNewPet, f.send("0"))
	assert.Equal(t, session.StateAddPet, f.session().State)

	reply := f.send("thor")
	assert.Contains(t, reply, "Qual serviço deseja agendar?")
	assert.Equal(t, []string{"Thor"}, f.customers.createdPets)
	// The customer already exists, so no new customer row.
	assert.Empty(t, f.customers.createdName)
}

func TestServiceWithKnownPetSkipsPetNamePrompt(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateBookingService
	sess.Temp.PetName = "Rex"
	sess.Temp.ServiceOptions = f.catalog.services

	reply := f.send("2")
	assert.Contains(t, reply, "Com qual profissional deseja agendar?")
	assert.Equal(t, "Banho E Tosa Higiênica", f.session().Temp.ServiceName)
	assert.Equal(t, 90, f.session().Temp.ServiceDuration)
}

func TestOutOfDomainInputStaysInState(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		setup func(temp *session.TempData)
		input string
		reply string
	}{
		{
			name:  "pet index out of range",
			state: session.StateSelectPet,
			setup: func(temp *session.TempData) { temp.PetOptions = []string{"Rex"} },
			input: "9",
			reply: msgInvalidPet,
		},
		{
			name:  "unknown service id",
			state: session.StateBookingService,
			setup: func(temp *session.TempData) {
				temp.ServiceOptions = []catalog.Service{{ID: 1, Name: "Banho"}}
			},
			input: "99",
			reply: msgInvalidService,
		},
		{
			name:  "unknown professional id",
			state: session.StateBookingProfessional,
			setup: func(temp *session.TempData) {
				temp.ProfessionalOptions = []catalog.Professional{{ID: 1, Name: "Lais"}}
			},
			input: "7",
			reply: msgInvalidProfessional,
		},
		{
			name:  "date index out of range",
			state: session.StateBookingDate,
			setup: func(temp *session.TempData) {
				temp.DateOptions = []schedule.DateOption{{Date: "2026-09-10"}}
			},
			input: "5",
			reply: msgInvalidDate,
		},
		{
			name:  "time index out of range",
			state: session.StateBookingTime,
			setup: func(temp *session.TempData) { temp.TimeOptions = []string{"09:00"} },
			input: "4",
			reply: msgInvalidTime,
		},
		{
			name:  "confirm gibberish",
			state: session.StateBookingConfirm,
			setup: func(temp *session.TempData) { temp.ServiceName = "Banho" },
			input: "sim",
			reply: msgInvalidConfirm,
		},
		{
			name:  "cancellation index out of range",
			state: session.StateCancellationChoice,
			setup: func(temp *session.TempData) {
				temp.CancellationOptions = []session.CancellationOption{{AppointmentID: 1}}
			},
			input: "3",
			reply: msgInvalidCancelChoice,
		},
		{
			name:  "reminder gibberish",
			state: session.StateAwaitingReminderAnswer,
			setup: func(temp *session.TempData) { temp.ReminderAppointmentID = 5 },
			input: "talvez",
			reply: msgInvalidReminder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sess := f.sessions.Load(context.Background(), testPhone)
			sess.State = tt.state
			tt.setup(&sess.Temp)
			before := sess.Temp

			reply := f.send(tt.input)
			assert.Equal(t, tt.reply, reply)
			assert.Equal(t, tt.state, f.session().State, "state must not advance")
			assert.Equal(t, before, f.session().Temp, "temp data must not mutate")
		})
	}
}

func TestManualDateEntry(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateBookingDate
	sess.Temp.ServiceName = "Banho"
	sess.Temp.ProfessionalID = 1
	sess.Temp.DateOptions = f.availability.dates

	assert.Equal(t, msgAskManualDate, f.send("6"))
	assert.Equal(t, session.StateBookingManualDate, f.session().State)

	assert.Equal(t, msgManualDateFormat, f.send("2026-09-10"))
	assert.Equal(t, msgManualDatePast, f.send("01/01/2020"))
	assert.Equal(t, msgManualDateUnavailable, f.send("13/09/2026"))
	assert.Equal(t, session.StateBookingManualDate, f.session().State)

	reply := f.send("10/09/2026")
	assert.Contains(t, reply, "Agendamento em: *10/09/2026*")
	assert.Equal(t, session.StateBookingTime, f.session().State)
	assert.Equal(t, "2026-09-10", f.session().Temp.Date)
}

func TestSlotTakenAtConfirmReturnsToTimeChoice(t *testing.T) {
	f := newFixture(t)
	f.appointments.createErr = appointments.ErrSlotTaken
	f.availability.slots = []string{"11:00"}

	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateBookingConfirm
	sess.Temp = session.TempData{
		OwnerName:        "Maria",
		PetName:          "Rex",
		ServiceName:      "Banho",
		ServiceDuration:  60,
		ProfessionalID:   1,
		ProfessionalName: "Lais",
		Date:             "2026-09-10",
		DateDisplay:      "Quinta-feira, 10 de Setembro de 2026",
		Time:             "09:00",
	}

	reply := f.send("1")
	assert.Contains(t, reply, msgSlotTaken)
	assert.Contains(t, reply, "*1* - 11:00")
	assert.Equal(t, session.StateBookingTime, f.session().State)
	assert.Equal(t, []string{"11:00"}, f.session().Temp.TimeOptions)
	assert.Empty(t, f.appointments.created)
}

func TestBookingInsertFailureDoesNotClaimSuccess(t *testing.T) {
	f := newFixture(t)
	f.appointments.createErr = errors.New("connection reset")

	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateBookingConfirm
	sess.Temp = session.TempData{ServiceName: "Banho", Date: "2026-09-10", Time: "09:00", ProfessionalID: 1}

	reply := f.send("1")
	assert.Equal(t, msgBookingFailed, reply)
	assert.Equal(t, session.StateBookingConfirm, f.session().State)
	assert.NotContains(t, reply, "Confirmado")
}

func TestBookingDeclinedResets(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateBookingConfirm
	sess.Temp.ServiceName = "Banho"

	reply := f.send("2")
	assert.True(t, strings.HasPrefix(reply, msgBookingDropped))
	assert.Equal(t, session.StateMenu, f.session().State)
	assert.Equal(t, session.TempData{}, f.session().Temp)
}

func TestCancellationFlow(t *testing.T) {
	f := newFixture(t)
	f.appointments.future = []appointments.Appointment{
		{ID: 11, PetName: "Rex", Service: "Banho", Date: "2026-09-10", Time: "09:00", Phone: testPhone},
		{ID: 12, PetName: "Luna", Service: "Tosa", Date: "2026-09-11", Time: "14:00", Phone: testPhone},
	}

	reply := f.send("2")
	assert.Contains(t, reply, "Qual agendamento você gostaria de cancelar?")
	assert.Contains(t, reply, "*2* - *Luna - Tosa - 11/09/2026 às 14:00*")
	assert.Equal(t, session.StateCancellationChoice, f.session().State)

	reply = f.send("2")
	assert.Contains(t, reply, "Você selecionou o agendamento *Luna - Tosa - 11/09/2026 às 14:00*")
	assert.Equal(t, session.StateCancellationConfirm, f.session().State)

	reply = f.send("1")
	assert.Contains(t, reply, "cancelado com sucesso")
	assert.Equal(t, []int64{12}, f.appointments.canceled)
	require.Len(t, f.notifier.cancellations, 1)
	assert.Equal(t, int64(12), f.notifier.cancellations[0].ID)
	assert.Equal(t, 1, f.metrics.canceled)
	assert.Equal(t, session.StateMenu, f.session().State)
}

func TestCancellationAbortsOnAnythingElse(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.StateCancellationConfirm
	sess.Temp.CancelAppointmentID = 11

	reply := f.send("nao")
	assert.Equal(t, msgCancelAborted, reply)
	assert.Equal(t, session.StateMenu, f.session().State)
	assert.Empty(t, f.appointments.canceled)
}

func TestCancellationWithNothingBooked(t *testing.T) {
	f := newFixture(t)

	reply := f.send("2")
	assert.Equal(t, msgNoFutureAppointments, reply)
	assert.Equal(t, session.StateMenu, f.session().State)
}

func TestReminderPromptAndResponses(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.controller.ForceReminderPrompt(context.Background(), testPhone, 33))
	assert.Equal(t, session.StateAwaitingReminderAnswer, f.session().State)
	assert.Equal(t, int64(33), f.session().Temp.ReminderAppointmentID)

	assert.Equal(t, msgReminderThanks, f.send("1"))
	assert.Equal(t, session.StateMenu, f.session().State)

	require.NoError(t, f.controller.ForceReminderPrompt(context.Background(), testPhone, 34))
	assert.Equal(t, msgReminderCanceled, f.send("2"))
	assert.Equal(t, []int64{34}, f.appointments.canceled)
}

func TestUnknownStateRecoversAtMenu(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Load(context.Background(), testPhone)
	sess.State = session.State("cancel_code")

	reply := f.send("1")
	assert.Equal(t, msgMenu, reply)
	assert.Equal(t, session.StateMenu, f.session().State)
}
