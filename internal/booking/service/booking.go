package service

import (
	"context"
	"errors"
	"time"

	availability "carebook/internal/availability/service"
	bookingerrors "carebook/internal/booking/errors"
	"carebook/internal/booking/repository"
	"carebook/internal/booking/validator"
	directory "carebook/internal/directory/service"
	"carebook/internal/notify"
	"carebook/internal/payments"
	"carebook/pkg/config"
	apperrors "carebook/pkg/errors"
	"carebook/pkg/interval"
	"carebook/pkg/logger"
	"carebook/pkg/model"
	"carebook/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// BookingService orchestrates the appointment lifecycle: book, cancel,
// complete. Booking composes the directory quote, the availability
// reservation and the payment hold; every step that can fail after a side
// effect has a compensating rollback.
type BookingService interface {
	Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	ListByCaregiver(ctx context.Context, caregiverID string, limit int, offset int64) ([]*model.Appointment, error)
	Cancel(ctx context.Context, id string, version int64, actor model.Actor) (*model.Appointment, error)
	Complete(ctx context.Context, id string, version int64, actor model.Actor) (*model.Appointment, error)
}

type bookingService struct {
	appointments repository.AppointmentRepository
	store        availability.AvailabilityStore
	caregivers   directory.CaregiverService
	payments     payments.Provider
	notifier     notify.Notifier
	validator    *validator.BookingValidator
	cfg          *config.Config
	log          *logger.Logger
	now          func() time.Time
}

func NewBookingService(
	appointments repository.AppointmentRepository,
	store availability.AvailabilityStore,
	caregivers directory.CaregiverService,
	provider payments.Provider,
	notifier notify.Notifier,
	bookingValidator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		appointments: appointments,
		store:        store,
		caregivers:   caregivers,
		payments:     provider,
		notifier:     notifier,
		validator:    bookingValidator,
		cfg:          cfg,
		log:          cfg.Log,
		now:          time.Now,
	}
}

// Book runs the full booking pipeline. The availability reservation is taken
// before the appointment document exists, so a crash between the two leaves
// only an orphaned hold, never a double booking.
func (s *bookingService) Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, apperrors.Validation("Invalid booking request", map[string]any{"error": err.Error()})
	}

	iv, err := interval.New(req.StartTime, req.EndTime)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if !interval.Aligned(iv, s.cfg.SlotGranularity) {
		return nil, apperrors.InvalidInput("start and end times must fall on slot boundaries")
	}
	if !iv.Start.After(s.now()) {
		return nil, apperrors.InvalidInput("booking must start in the future")
	}

	// Quote already maps unknown caregivers and undeclared specialties to
	// client-facing app errors.
	caregiver, price, err := s.caregivers.Quote(ctx, req.CaregiverID, req.Specialty, iv)
	if err != nil {
		return nil, err
	}

	token, err := s.store.Reserve(ctx, req.CaregiverID, iv)
	if err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ID:               uuid.NewString(),
		CaregiverID:      req.CaregiverID,
		CareseekerID:     req.CareseekerID,
		Specialty:        req.Specialty,
		StartTime:        iv.Start,
		EndTime:          iv.End,
		Status:           model.StatusRequested,
		Note:             sanitizer.NormalizeNote(req.Note),
		PriceCents:       price,
		Currency:         caregiver.Currency,
		ReservationToken: token,
		Policy:           caregiver.Policy,
	}

	if err := s.appointments.Create(ctx, appt); err != nil {
		s.rollbackReservation(ctx, token, appt.ID)
		return nil, apperrors.Internal("Failed to record booking", err)
	}

	holdCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentHoldTimeout)
	holdRef, holdErr := s.payments.PlaceHold(holdCtx, appt.ID, req.CareseekerID, price, appt.Currency)
	cancel()
	if holdErr != nil {
		s.failBooking(ctx, appt, token)
		if apperrors.IsAppError(holdErr) {
			return nil, holdErr
		}
		return nil, apperrors.PaymentHold("payment hold was declined or timed out", holdErr)
	}

	confirmed, err := s.appointments.UpdateStatus(ctx, appt, model.StatusConfirmed, bson.M{
		"hold_ref": string(holdRef),
	})
	if err != nil {
		s.log.Error("failed to confirm appointment after payment hold",
			"appointment_id", appt.ID, "error", err)
		releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer releaseCancel()
		if releaseErr := s.payments.ReleaseHold(releaseCtx, holdRef); releaseErr != nil {
			s.log.Error("failed to release payment hold during rollback",
				"appointment_id", appt.ID, "error", releaseErr)
		}
		s.failBooking(ctx, appt, token)
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}

	s.notifier.AppointmentChanged(ctx, notify.EventConfirmed, confirmed, nil)

	s.log.Info("appointment confirmed",
		"appointment_id", confirmed.ID,
		"caregiver_id", confirmed.CaregiverID,
		"price_cents", confirmed.PriceCents)

	return confirmed, nil
}

// failBooking is the compensating path for a booking that reserved the slot
// but cannot proceed. It runs on a detached context so the caller's request
// deadline expiring cannot strand the hold.
func (s *bookingService) failBooking(ctx context.Context, appt *model.Appointment, token string) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	failed, err := s.appointments.UpdateStatus(detached, appt, model.StatusFailed, nil)
	if err != nil {
		s.log.Error("failed to mark appointment failed",
			"appointment_id", appt.ID, "error", err)
	}

	s.rollbackReservation(detached, token, appt.ID)

	if failed != nil {
		s.notifier.AppointmentChanged(detached, notify.EventFailed, failed, nil)
	}
}

func (s *bookingService) rollbackReservation(ctx context.Context, token, appointmentID string) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.store.Release(detached, token); err != nil {
		s.log.Error("failed to release reservation during rollback",
			"appointment_id", appointmentID, "error", err)
	}
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrAppointmentNotFound) {
			return nil, apperrors.NotFoundWithID("appointment", id)
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appt, nil
}

func (s *bookingService) ListByCaregiver(ctx context.Context, caregiverID string, limit int, offset int64) ([]*model.Appointment, error) {
	appts, err := s.appointments.FindByCaregiver(ctx, caregiverID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to list appointments", err)
	}
	return appts, nil
}

// Cancel moves a confirmed appointment to cancelled, computes the refund
// tier against the policy snapshot taken at booking time, frees the slot and
// issues the refund. The version-conditional update decides races: the loser
// gets a stale-state error and must re-read.
func (s *bookingService) Cancel(ctx context.Context, id string, version int64, actor model.Actor) (*model.Appointment, error) {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.Party(actor) {
		return nil, apperrors.Forbidden("only a party to the appointment may cancel it")
	}
	if !appt.Status.CanTransition(model.StatusCancelled) {
		return nil, apperrors.InvalidTransition(string(appt.Status), string(model.StatusCancelled))
	}

	now := s.now()
	tier := appt.Policy.TierAt(now, appt.StartTime)
	refund := appt.Policy.RefundCents(tier, appt.PriceCents)

	appt.Version = version
	cancelled, err := s.appointments.UpdateStatus(ctx, appt, model.StatusCancelled, bson.M{
		"refund_tier":  tier,
		"cancelled_by": actor.ID,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "appointment", id)
	}

	s.releaseSlot(ctx, cancelled)
	s.settleCancellation(ctx, cancelled, refund)

	s.notifier.AppointmentChanged(ctx, notify.EventCancelled, cancelled, &refund)

	s.log.Info("appointment cancelled",
		"appointment_id", cancelled.ID,
		"cancelled_by", actor.ID,
		"refund_tier", string(tier),
		"refund_cents", refund)

	return cancelled, nil
}

// Complete moves a confirmed appointment to completed once its end time has
// passed, releases the slot and leaves the captured payment with the
// caregiver.
func (s *bookingService) Complete(ctx context.Context, id string, version int64, actor model.Actor) (*model.Appointment, error) {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.Party(actor) {
		return nil, apperrors.Forbidden("only a party to the appointment may complete it")
	}
	if !appt.Status.CanTransition(model.StatusCompleted) {
		return nil, apperrors.InvalidTransition(string(appt.Status), string(model.StatusCompleted))
	}
	if s.now().Before(appt.EndTime) {
		return nil, apperrors.Conflict("appointment has not ended yet").
			WithDetails(map[string]any{"end_time": appt.EndTime})
	}

	appt.Version = version
	completed, err := s.appointments.UpdateStatus(ctx, appt, model.StatusCompleted, nil)
	if err != nil {
		return nil, s.mapTransitionError(err, "appointment", id)
	}

	s.releaseSlot(ctx, completed)

	s.notifier.AppointmentChanged(ctx, notify.EventCompleted, completed, nil)

	s.log.Info("appointment completed", "appointment_id", completed.ID)

	return completed, nil
}

func (s *bookingService) releaseSlot(ctx context.Context, appt *model.Appointment) {
	if appt.ReservationToken == "" {
		return
	}
	if err := s.store.Release(ctx, appt.ReservationToken); err != nil {
		s.log.Error("failed to release reservation for terminal appointment",
			"appointment_id", appt.ID, "error", err)
	}
}

// settleCancellation releases or partially refunds the payment hold. Refund
// failures are logged, never surfaced: the cancellation itself already
// committed.
func (s *bookingService) settleCancellation(ctx context.Context, appt *model.Appointment, refundCents int64) {
	if appt.HoldRef == "" {
		return
	}
	ref := payments.HoldRef(appt.HoldRef)

	if refundCents >= appt.PriceCents {
		if err := s.payments.ReleaseHold(ctx, ref); err != nil {
			s.log.Error("failed to release payment hold on cancellation",
				"appointment_id", appt.ID, "error", err)
		}
		return
	}
	if err := s.payments.Refund(ctx, ref, refundCents); err != nil {
		s.log.Error("failed to refund on cancellation",
			"appointment_id", appt.ID, "refund_cents", refundCents, "error", err)
	}
}

func (s *bookingService) mapTransitionError(err error, resource, id string) error {
	switch {
	case errors.Is(err, bookingerrors.ErrVersionMismatch):
		return apperrors.StaleState(resource, id)
	case errors.Is(err, bookingerrors.ErrAppointmentNotFound):
		return apperrors.NotFoundWithID(resource, id)
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to update appointment", err)
}
