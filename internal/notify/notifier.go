package notify

import (
	"context"
	"time"

	"carebook/pkg/model"
)

// EventKind names the appointment lifecycle events we publish.
type EventKind string

const (
	EventConfirmed EventKind = "appointment.confirmed"
	EventCancelled EventKind = "appointment.cancelled"
	EventCompleted EventKind = "appointment.completed"
	EventFailed    EventKind = "appointment.failed"
)

// AppointmentEvent is the payload published for every lifecycle change.
type AppointmentEvent struct {
	Kind          EventKind  `json:"kind"`
	AppointmentID string     `json:"appointment_id"`
	CaregiverID   string     `json:"caregiver_id"`
	CareseekerID  string     `json:"careseeker_id"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	RefundCents   *int64     `json:"refund_cents,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Notifier announces appointment lifecycle changes to interested parties.
// Delivery is best effort: callers never fail a booking over a lost event.
type Notifier interface {
	AppointmentChanged(ctx context.Context, kind EventKind, appt *model.Appointment, refundCents *int64)
}
