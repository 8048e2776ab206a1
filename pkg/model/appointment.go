package model

import (
	"time"
)

// Status is the lifecycle state of an appointment. The transition set is
// closed: requested -> confirmed -> completed, requested -> failed,
// confirmed -> cancelled, confirmed -> failed. Completed, cancelled and
// failed are terminal.
type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal
// state-machine move.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusRequested:
		return next == StatusConfirmed || next == StatusFailed
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled || next == StatusFailed
	}
	return false
}

// Actor identifies who is acting on an appointment, as supplied by the
// upstream auth layer.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

const (
	RoleCaregiver  = "caregiver"
	RoleCareseeker = "careseeker"
)

// Appointment is a booked (or attempted) engagement between one caregiver
// and one careseeker over a single time interval. Appointments are never
// deleted; terminal states are permanent history. Every mutation goes
// through the state machine and bumps Version.
type Appointment struct {
	ID           string    `json:"id" bson:"_id"`
	CaregiverID  string    `json:"caregiver_id" bson:"caregiver_id"`
	CareseekerID string    `json:"careseeker_id" bson:"careseeker_id"`
	Specialty    Specialty `json:"specialty" bson:"specialty"`
	StartTime    time.Time `json:"start_time" bson:"start_time"`
	EndTime      time.Time `json:"end_time" bson:"end_time"`
	Status       Status    `json:"status" bson:"status"`
	Note         string    `json:"note,omitempty" bson:"note,omitempty"`

	PriceCents int64  `json:"price_cents" bson:"price_cents"`
	Currency   string `json:"currency" bson:"currency"`

	// ReservationToken references the hold on the caregiver's interval in
	// the availability store; released when the appointment goes terminal.
	ReservationToken string `json:"-" bson:"reservation_token"`

	// HoldRef references the payment hold owned by the payments
	// collaborator. Empty until a hold is placed.
	HoldRef string `json:"hold_ref,omitempty" bson:"hold_ref,omitempty"`

	// Policy is a copy of the caregiver's cancellation policy captured at
	// booking time. Later policy edits never change existing bookings.
	Policy CancellationPolicy `json:"policy" bson:"policy"`

	// RefundTier and CancelledBy are set when the appointment is cancelled.
	RefundTier  RefundTier `json:"refund_tier,omitempty" bson:"refund_tier,omitempty"`
	CancelledBy string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`

	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Party reports whether the actor is the caregiver or the careseeker on
// this appointment.
func (a *Appointment) Party(actor Actor) bool {
	switch actor.Role {
	case RoleCaregiver:
		return actor.ID == a.CaregiverID
	case RoleCareseeker:
		return actor.ID == a.CareseekerID
	}
	return false
}
