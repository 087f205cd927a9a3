package dialogue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/internal/customers"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/internal/session"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

// pauseDuration is how long the bot stays quiet after a human-handoff request.
const pauseDuration = 60 * time.Minute

// backKeyword resets any state to the menu.
const backKeyword = "voltar"

// Catalog lists the bookable services and professionals.
type Catalog interface {
	ListServices(ctx context.Context) ([]catalog.Service, error)
	ListProfessionals(ctx context.Context) ([]catalog.Professional, error)
}

// Customers resolves and registers customers and their pets.
type Customers interface {
	GetByPhone(ctx context.Context, phone string) (*customers.Customer, error)
	Create(ctx context.Context, phone, ownerName string) (int64, error)
	ListPets(ctx context.Context, customerID int64) ([]customers.Pet, error)
	CreatePet(ctx context.Context, customerID int64, name string) (int64, error)
}

// Appointments writes and cancels bookings.
type Appointments interface {
	CreateConfirmed(ctx context.Context, a *appointments.Appointment, durationMinutes int) (int64, error)
	ListFutureByPhone(ctx context.Context, phone, fromDate string) ([]appointments.Appointment, error)
	GetByID(ctx context.Context, id int64) (*appointments.Appointment, error)
	Cancel(ctx context.Context, id int64, phone string) error
}

// Availability answers which dates and times can still be booked.
type Availability interface {
	CandidateDates(ctx context.Context, professionalID int64, serviceName string) []schedule.DateOption
	FreeSlots(ctx context.Context, date string, professionalID int64, serviceName string) []string
	ValidateManualDate(ctx context.Context, input string) (string, error)
}

// SessionStore loads and persists conversations.
type SessionStore interface {
	Load(ctx context.Context, phone string) *session.Session
	Save(ctx context.Context, sess *session.Session) error
}

// Notifier pushes events to the attendant-facing side.
type Notifier interface {
	NotifyCancellation(ctx context.Context, appt appointments.Appointment)
}

// BookingMetrics counts booking outcomes.
type BookingMetrics interface {
	ObserveBookingConfirmed()
	ObserveBookingCanceled()
}

// Controller is the conversation state machine. One inbound message produces
// one reply; per-phone locking makes each turn atomic with respect to other
// messages and the reminder worker.
type Controller struct {
	catalog      Catalog
	customers    Customers
	appointments Appointments
	availability Availability
	sessions     SessionStore
	locks        *session.PhoneLocks
	notifier     Notifier
	metrics      BookingMetrics
	clock        *schedule.Clock
	logger       *logging.Logger
	address      string
}

// NewController wires the state machine to its collaborators. notifier may be
// nil when no attendant channel is configured.
func NewController(
	cat Catalog,
	cust Customers,
	appts Appointments,
	avail Availability,
	sessions SessionStore,
	locks *session.PhoneLocks,
	notifier Notifier,
	clock *schedule.Clock,
	logger *logging.Logger,
	businessAddress string,
) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		catalog:      cat,
		customers:    cust,
		appointments: appts,
		availability: avail,
		sessions:     sessions,
		locks:        locks,
		notifier:     notifier,
		clock:        clock,
		logger:       logger,
		address:      businessAddress,
	}
}

// WithMetrics attaches booking outcome counters.
func (c *Controller) WithMetrics(m BookingMetrics) *Controller {
	c.metrics = m
	return c
}

// ProcessMessage runs one conversation turn and returns the reply text. An
// empty reply means the bot is paused and nothing should be sent.
func (c *Controller) ProcessMessage(ctx context.Context, phone, text string) string {
	c.locks.Lock(phone)
	defer c.locks.Unlock(phone)

	sess := c.sessions.Load(ctx, phone)
	if sess.Paused(c.clock.Now()) {
		return ""
	}

	input := strings.ToLower(strings.TrimSpace(text))

	var reply string
	if input == backKeyword {
		sess.Reset()
		reply = msgMenu
	} else {
		reply = c.handle(ctx, sess, input)
	}

	if err := c.sessions.Save(ctx, sess); err != nil {
		c.logger.Error("dialogue: session save failed", "phone", phone, "error", err)
	}
	return reply
}

// ForceReminderPrompt flips a session into the reminder-response state on
// behalf of the reminder worker, under the same per-phone lock as inbound
// messages.
func (c *Controller) ForceReminderPrompt(ctx context.Context, phone string, appointmentID int64) error {
	c.locks.Lock(phone)
	defer c.locks.Unlock(phone)

	sess := c.sessions.Load(ctx, phone)
	sess.State = session.StateAwaitingReminderAnswer
	sess.Temp = session.TempData{ReminderAppointmentID: appointmentID}
	return c.sessions.Save(ctx, sess)
}

func (c *Controller) handle(ctx context.Context, sess *session.Session, input string) string {
	switch sess.State {
	case session.StateMenu:
		return c.handleMenu(ctx, sess, input)
	case session.StateNewCustomer:
		return c.handleNewCustomer(sess, input)
	case session.StateAddPet:
		return c.handleAddPet(ctx, sess, input)
	case session.StateSelectPet:
		return c.handleSelectPet(ctx, sess, input)
	case session.StateBookingService:
		return c.handleBookingService(ctx, sess, input)
	case session.StateBookingPetName:
		return c.handleBookingPetName(ctx, sess, input)
	case session.StateBookingProfessional:
		return c.handleBookingProfessional(ctx, sess, input)
	case session.StateBookingDate:
		return c.handleBookingDate(ctx, sess, input)
	case session.StateBookingManualDate:
		return c.handleBookingManualDate(ctx, sess, input)
	case session.StateBookingTime:
		return c.handleBookingTime(sess, input)
	case session.StateBookingConfirm:
		return c.handleBookingConfirm(ctx, sess, input)
	case session.StateCancellationChoice:
		return c.handleCancellationChoice(sess, input)
	case session.StateCancellationConfirm:
		return c.handleCancellationConfirm(ctx, sess, input)
	case session.StateAwaitingReminderAnswer:
		return c.handleReminderResponse(ctx, sess, input)
	default:
		// Unknown persisted state: recover at the menu.
		sess.Reset()
		return msgMenu
	}
}

func (c *Controller) handleMenu(ctx context.Context, sess *session.Session, input string) string {
	switch input {
	case "1":
		return c.startBooking(ctx, sess)
	case "2":
		return c.startCancellation(ctx, sess)
	case "3":
		sess.Pause(c.clock.Now(), pauseDuration)
		return msgHandoff
	default:
		return msgMenu
	}
}

func (c *Controller) startBooking(ctx context.Context, sess *session.Session) string {
	customer, err := c.customers.GetByPhone(ctx, sess.Phone)
	if err != nil {
		c.logger.Warn("dialogue: customer lookup failed", "phone", sess.Phone, "error", err)
	}
	if customer == nil {
		sess.State = session.StateNewCustomer
		return msgAskOwnerName
	}

	sess.Temp.CustomerID = customer.ID
	sess.Temp.OwnerName = customer.OwnerName

	pets, err := c.customers.ListPets(ctx, customer.ID)
	if err != nil {
		c.logger.Warn("dialogue: pet lookup failed", "phone", sess.Phone, "error", err)
	}
	if len(pets) == 0 {
		sess.State = session.StateAddPet
		return msgNoPetsYet
	}

	names := make([]string, len(pets))
	for i, p := range pets {
		names[i] = p.Name
	}
	sess.Temp.PetOptions = names
	sess.State = session.StateSelectPet
	return petsMessage(names)
}

func (c *Controller) startCancellation(ctx context.Context, sess *session.Session) string {
	appts, err := c.appointments.ListFutureByPhone(ctx, sess.Phone, c.clock.TodayString())
	if err != nil {
		c.logger.Warn("dialogue: future appointments lookup failed", "phone", sess.Phone, "error", err)
		return msgAppointmentsErr
	}
	if len(appts) == 0 {
		return msgNoFutureAppointments
	}

	options := make([]session.CancellationOption, len(appts))
	for i, a := range appts {
		options[i] = session.CancellationOption{
			AppointmentID: a.ID,
			Service:       a.Service,
			Date:          a.Date,
			Time:          a.Time,
			PetName:       a.PetName,
		}
	}
	sess.Temp.CancellationOptions = options
	sess.State = session.StateCancellationChoice
	return cancellationListMessage(options)
}

func (c *Controller) handleNewCustomer(sess *session.Session, input string) string {
	sess.Temp.OwnerName = capitalizeFirst(input)
	sess.State = session.StateAddPet
	return msgAskFirstPet
}

func (c *Controller) handleAddPet(ctx context.Context, sess *session.Session, input string) string {
	sess.Temp.PetName = capitalizeFirst(input)

	if sess.Temp.CustomerID == 0 {
		id, err := c.customers.Create(ctx, sess.Phone, sess.Temp.OwnerName)
		if err != nil {
			c.logger.Error("dialogue: customer create failed", "phone", sess.Phone, "error", err)
		} else {
			sess.Temp.CustomerID = id
		}
	}
	if sess.Temp.CustomerID != 0 {
		if _, err := c.customers.CreatePet(ctx, sess.Temp.CustomerID, sess.Temp.PetName); err != nil {
			c.logger.Error("dialogue: pet create failed", "phone", sess.Phone, "error", err)
		}
	}

	return c.showServices(ctx, sess)
}

func (c *Controller) handleSelectPet(ctx context.Context, sess *session.Session, input string) string {
	if input == "0" {
		sess.State = session.StateAddPet
		return msgAskNewPet
	}

	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(sess.Temp.PetOptions) {
		return msgInvalidPet
	}

	sess.Temp.PetName = capitalizeFirst(sess.Temp.PetOptions[idx-1])
	return c.showServices(ctx, sess)
}

func (c *Controller) showServices(ctx context.Context, sess *session.Session) string {
	services, err := c.catalog.ListServices(ctx)
	if err != nil {
		c.logger.Warn("dialogue: service list failed", "phone", sess.Phone, "error", err)
	}
	sess.Temp.ServiceOptions = services
	sess.State = session.StateBookingService
	return servicesMessage(services)
}

func (c *Controller) handleBookingService(ctx context.Context, sess *session.Session, input string) string {
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return msgInvalidService
	}

	var chosen *catalog.Service
	for i := range sess.Temp.ServiceOptions {
		if sess.Temp.ServiceOptions[i].ID == id {
			chosen = &sess.Temp.ServiceOptions[i]
			break
		}
	}
	if chosen == nil {
		return msgInvalidService
	}

	sess.Temp.ServiceName = chosen.Name
	sess.Temp.ServicePrice = chosen.Price
	sess.Temp.ServiceDuration = chosen.DurationMinutes

	if sess.Temp.PetName != "" {
		return c.showProfessionals(ctx, sess)
	}
	sess.State = session.StateBookingPetName
	return msgAskPetName
}

func (c *Controller) handleBookingPetName(ctx context.Context, sess *session.Session, input string) string {
	sess.Temp.PetName = capitalizeFirst(input)
	return c.showProfessionals(ctx, sess)
}

func (c *Controller) showProfessionals(ctx context.Context, sess *session.Session) string {
	professionals, err := c.catalog.ListProfessionals(ctx)
	if err != nil {
		c.logger.Warn("dialogue: professional list failed", "phone", sess.Phone, "error", err)
	}
	sess.Temp.ProfessionalOptions = professionals
	sess.State = session.StateBookingProfessional
	return professionalsMessage(professionals)
}

func (c *Controller) handleBookingProfessional(ctx context.Context, sess *session.Session, input string) string {
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return msgInvalidProfessional
	}

	var chosen *catalog.Professional
	for i := range sess.Temp.ProfessionalOptions {
		if sess.Temp.ProfessionalOptions[i].ID == id {
			chosen = &sess.Temp.ProfessionalOptions[i]
			break
		}
	}
	if chosen == nil {
		return msgInvalidProfessional
	}

	sess.Temp.ProfessionalID = chosen.ID
	sess.Temp.ProfessionalName = chosen.Name

	options := c.availability.CandidateDates(ctx, chosen.ID, sess.Temp.ServiceName)
	sess.Temp.DateOptions = options
	sess.State = session.StateBookingDate
	if len(options) == 0 {
		return msgNoDates
	}
	return datesMessage(options)
}

func (c *Controller) handleBookingDate(ctx context.Context, sess *session.Session, input string) string {
	if input == "6" {
		sess.State = session.StateBookingManualDate
		return msgAskManualDate
	}

	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(sess.Temp.DateOptions) {
		return msgInvalidDate
	}

	opt := sess.Temp.DateOptions[idx-1]
	sess.Temp.Date = opt.Date
	sess.Temp.DateDisplay = opt.DayLabel + ", " + opt.Display
	return c.showTimes(ctx, sess)
}

func (c *Controller) handleBookingManualDate(ctx context.Context, sess *session.Session, input string) string {
	date, err := c.availability.ValidateManualDate(ctx, input)
	switch {
	case errors.Is(err, schedule.ErrManualDatePast):
		return msgManualDatePast
	case errors.Is(err, schedule.ErrManualDateUnavailable):
		return msgManualDateUnavailable
	case err != nil:
		return msgManualDateFormat
	}

	sess.Temp.Date = date
	sess.Temp.DateDisplay = input
	return c.showTimes(ctx, sess)
}

func (c *Controller) showTimes(ctx context.Context, sess *session.Session) string {
	times := c.availability.FreeSlots(ctx, sess.Temp.Date, sess.Temp.ProfessionalID, sess.Temp.ServiceName)
	sess.Temp.TimeOptions = times
	sess.State = session.StateBookingTime
	if len(times) == 0 {
		return msgNoTimes
	}
	return timesMessage(sess.Temp.DateDisplay, times)
}

func (c *Controller) handleBookingTime(sess *session.Session, input string) string {
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(sess.Temp.TimeOptions) {
		return msgInvalidTime
	}

	sess.Temp.Time = sess.Temp.TimeOptions[idx-1]
	sess.State = session.StateBookingConfirm
	return confirmationPrompt(sess.Temp)
}

func (c *Controller) handleBookingConfirm(ctx context.Context, sess *session.Session, input string) string {
	switch input {
	case "1":
		return c.confirmBooking(ctx, sess)
	case "2":
		sess.Reset()
		return msgBookingDropped + msgMenu
	default:
		return msgInvalidConfirm
	}
}

func (c *Controller) confirmBooking(ctx context.Context, sess *session.Session) string {
	petName := sess.Temp.PetName
	if petName == "" {
		petName = "Não informado"
	}
	ownerName := sess.Temp.OwnerName
	if ownerName == "" {
		ownerName = "Cliente"
	}
	duration := sess.Temp.ServiceDuration
	if duration <= 0 {
		duration = appointments.DefaultDurationMinutes
	}

	appt := &appointments.Appointment{
		PetName:        petName,
		OwnerName:      ownerName,
		Phone:          sess.Phone,
		Service:        sess.Temp.ServiceName,
		Date:           sess.Temp.Date,
		Time:           sess.Temp.Time,
		ProfessionalID: sess.Temp.ProfessionalID,
	}

	id, err := c.appointments.CreateConfirmed(ctx, appt, duration)
	if errors.Is(err, appointments.ErrSlotTaken) {
		// Someone else took the slot since it was listed; offer what is
		// still free.
		return msgSlotTaken + "\n\n" + c.showTimes(ctx, sess)
	}
	if err != nil {
		c.logger.Error("dialogue: appointment insert failed", "phone", sess.Phone, "error", err)
		return msgBookingFailed
	}

	if c.metrics != nil {
		c.metrics.ObserveBookingConfirmed()
	}
	temp := sess.Temp
	sess.Reset()
	return bookingConfirmedMessage(temp, id, c.address) + "\n\n" + msgMenu
}

func (c *Controller) handleCancellationChoice(sess *session.Session, input string) string {
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(sess.Temp.CancellationOptions) {
		return msgInvalidCancelChoice
	}

	opt := sess.Temp.CancellationOptions[idx-1]
	sess.Temp.CancelAppointmentID = opt.AppointmentID
	sess.State = session.StateCancellationConfirm
	return cancellationChosenMessage(opt)
}

func (c *Controller) handleCancellationConfirm(ctx context.Context, sess *session.Session, input string) string {
	if input != "1" {
		sess.Reset()
		return msgCancelAborted
	}

	id := sess.Temp.CancelAppointmentID
	var chosen session.CancellationOption
	for _, opt := range sess.Temp.CancellationOptions {
		if opt.AppointmentID == id {
			chosen = opt
			break
		}
	}

	if err := c.appointments.Cancel(ctx, id, sess.Phone); err != nil {
		c.logger.Error("dialogue: cancellation failed", "phone", sess.Phone, "appointment_id", id, "error", err)
		return msgCancelFailed
	}

	if c.notifier != nil {
		if appt, err := c.appointments.GetByID(ctx, id); err == nil && appt != nil {
			c.notifier.NotifyCancellation(ctx, *appt)
		}
	}
	if c.metrics != nil {
		c.metrics.ObserveBookingCanceled()
	}

	sess.Reset()
	return cancellationDoneMessage(chosen)
}

func (c *Controller) handleReminderResponse(ctx context.Context, sess *session.Session, input string) string {
	switch input {
	case "1":
		sess.Reset()
		return msgReminderThanks
	case "2":
		id := sess.Temp.ReminderAppointmentID
		if err := c.appointments.Cancel(ctx, id, sess.Phone); err != nil {
			c.logger.Error("dialogue: reminder cancellation failed", "phone", sess.Phone, "appointment_id", id, "error", err)
			return msgCancelFailed
		}
		if c.metrics != nil {
			c.metrics.ObserveBookingCanceled()
		}
		sess.Reset()
		return msgReminderCanceled
	default:
		return msgInvalidReminder
	}
}
