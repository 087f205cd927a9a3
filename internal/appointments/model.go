package appointments

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// Appointment is a booked service slot. Date is a YYYY-MM-DD civil date and
// Time an HH:MM wall-clock start, both in the business timezone.
type Appointment struct {
	ID             int64      `json:"id"`
	PetName        string     `json:"pet_name"`
	OwnerName      string     `json:"owner_name"`
	Phone          string     `json:"phone"`
	Service        string     `json:"service"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	Status         Status     `json:"status"`
	ProfessionalID int64      `json:"professional_id"`
	ReminderSent   bool       `json:"reminder_sent"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BookedInterval is a confirmed appointment's occupied footprint on a
// professional's day, in minutes from midnight.
type BookedInterval struct {
	StartMinutes int
	EndMinutes   int
}
