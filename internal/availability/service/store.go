package service

import (
	"context"
	"errors"
	"time"

	availabilityerrors "carebook/internal/availability/errors"
	"carebook/internal/availability/repository"
	"carebook/internal/availability/validator"
	"carebook/pkg/config"
	apperrors "carebook/pkg/errors"
	"carebook/pkg/interval"
	"carebook/pkg/model"
	"carebook/pkg/sealer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityStore owns the published windows and the held-interval set of
// every caregiver. Reserve and Release are the only writers of holds;
// Reserve runs inside the caregiver's critical section so the re-check and
// the insert are atomic with respect to other bookings for the same
// caregiver.
type AvailabilityStore interface {
	PublishWindow(ctx context.Context, window *model.AvailabilityWindow) error
	Windows(ctx context.Context, caregiverID string, from, to *time.Time) ([]*model.AvailabilityWindow, error)
	IsFree(ctx context.Context, caregiverID string, iv interval.Interval) (bool, error)
	Reserve(ctx context.Context, caregiverID string, iv interval.Interval) (string, error)
	Release(ctx context.Context, token string) error
}

type availabilityStore struct {
	windows   repository.WindowRepository
	holds     repository.HoldRepository
	locks     *KeyedLock
	validator *validator.WindowValidator
	cfg       *config.Config
}

func NewAvailabilityStore(
	windows repository.WindowRepository,
	holds repository.HoldRepository,
	locks *KeyedLock,
	validator *validator.WindowValidator,
	cfg *config.Config,
) AvailabilityStore {
	return &availabilityStore{
		windows:   windows,
		holds:     holds,
		locks:     locks,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *availabilityStore) PublishWindow(ctx context.Context, window *model.AvailabilityWindow) error {
	if err := s.validator.ValidateWindow(window); err != nil {
		return apperrors.Validation("Invalid availability window", map[string]any{"error": err.Error()})
	}

	iv, err := interval.New(window.StartTime, window.EndTime)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if !interval.Aligned(iv, s.cfg.SlotGranularity) {
		return apperrors.InvalidInput("Window endpoints must fall on slot boundaries")
	}
	window.StartTime = iv.Start
	window.EndTime = iv.End

	if window.ID == "" {
		window.ID = uuid.New().String()
	}

	if err := s.locks.Acquire(ctx, window.CaregiverID); err != nil {
		return apperrors.Timeout("Timed out waiting for caregiver schedule")
	}
	defer s.locks.Release(window.CaregiverID)

	overlapping, err := s.windows.FindOverlapping(ctx, window.CaregiverID, iv)
	if err != nil {
		s.cfg.Log.Error("Failed to check window overlap", "caregiver_id", window.CaregiverID, "error", err)
		return apperrors.Internal("Failed to check window overlap", err)
	}
	if len(overlapping) > 0 {
		return apperrors.Conflict("Window overlaps an existing availability window").WithDetails(map[string]any{
			"start_time": overlapping[0].StartTime,
			"end_time":   overlapping[0].EndTime,
		})
	}

	if err := s.windows.Create(ctx, window); err != nil {
		s.cfg.Log.Error("Failed to publish window", "caregiver_id", window.CaregiverID, "error", err)
		return apperrors.Internal("Failed to publish availability window", err)
	}

	s.cfg.Log.Info("Availability window published",
		"id", window.ID,
		"caregiver_id", window.CaregiverID,
		"start_time", window.StartTime,
		"end_time", window.EndTime,
	)
	return nil
}

func (s *availabilityStore) Windows(ctx context.Context, caregiverID string, from, to *time.Time) ([]*model.AvailabilityWindow, error) {
	if caregiverID == "" {
		return nil, apperrors.InvalidInput("Caregiver ID cannot be empty")
	}

	windows, err := s.windows.FindByCaregiver(ctx, caregiverID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to list windows", "caregiver_id", caregiverID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve availability windows", err)
	}

	return windows, nil
}

// IsFree reports whether the interval is inside some published window and
// clear of every held interval. It is a read-only probe: a true answer can
// go stale before a booking lands.
func (s *availabilityStore) IsFree(ctx context.Context, caregiverID string, iv interval.Interval) (bool, error) {
	if caregiverID == "" {
		return false, apperrors.InvalidInput("Caregiver ID cannot be empty")
	}

	free, _, err := s.probe(ctx, caregiverID, iv)
	return free, err
}

// probeConflict names why an interval is not free: the sentinel reason and,
// for an overlap, the held interval that blocks it.
type probeConflict struct {
	reason error
	held   *interval.Interval
}

func (s *availabilityStore) probe(ctx context.Context, caregiverID string, iv interval.Interval) (bool, *probeConflict, error) {
	_, err := s.windows.FindCovering(ctx, caregiverID, iv)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrOutsideAvailability) {
			return false, &probeConflict{reason: availabilityerrors.ErrOutsideAvailability}, nil
		}
		return false, nil, apperrors.Internal("Failed to check published availability", err)
	}

	holds, err := s.holds.FindOverlapping(ctx, caregiverID, iv)
	if err != nil {
		return false, nil, apperrors.Internal("Failed to check held intervals", err)
	}
	if len(holds) > 0 {
		held, ivErr := interval.New(holds[0].StartTime, holds[0].EndTime)
		if ivErr != nil {
			return false, &probeConflict{reason: availabilityerrors.ErrIntervalHeld}, nil
		}
		return false, &probeConflict{reason: availabilityerrors.ErrIntervalHeld, held: &held}, nil
	}

	return true, nil, nil
}

// Reserve atomically re-checks freeness and records a hold inside the
// caregiver's critical section. The returned token is opaque; conflict
// errors name the reason and the requested interval, never other
// careseekers.
func (s *availabilityStore) Reserve(ctx context.Context, caregiverID string, iv interval.Interval) (string, error) {
	if caregiverID == "" {
		return "", apperrors.InvalidInput("Caregiver ID cannot be empty")
	}

	if err := s.locks.Acquire(ctx, caregiverID); err != nil {
		return "", apperrors.Timeout("Timed out waiting for caregiver schedule")
	}
	defer s.locks.Release(caregiverID)

	hold := &model.ReservationHold{
		ID:          uuid.New().String(),
		CaregiverID: caregiverID,
		StartTime:   iv.Start,
		EndTime:     iv.End,
	}

	// The free-check and the insert commit together; a crash in between
	// cannot leave a half-taken slot.
	err := s.holds.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		free, conflict, err := s.probe(sessCtx, caregiverID, iv)
		if err != nil {
			return err
		}
		if !free {
			return conflictError(conflict, iv)
		}
		return s.holds.Create(sessCtx, hold)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return "", err
		}
		s.cfg.Log.Error("Failed to record reservation hold", "caregiver_id", caregiverID, "error", err)
		return "", apperrors.Internal("Failed to reserve interval", err)
	}

	token, err := sealer.CreateReservationToken(caregiverID, hold.ID)
	if err != nil {
		// The hold must not outlive a token we cannot hand out.
		if _, delErr := s.holds.Delete(ctx, hold.ID); delErr != nil {
			s.cfg.Log.Error("Failed to roll back orphaned hold", "hold_id", hold.ID, "error", delErr)
		}
		return "", apperrors.Internal("Failed to seal reservation token", err)
	}

	s.cfg.Log.Info("Interval reserved",
		"caregiver_id", caregiverID,
		"hold_id", hold.ID,
		"start_time", iv.Start,
		"end_time", iv.End,
	)
	return token, nil
}

// Release drops the hold named by the token. Releasing an unknown or
// already-released token is a no-op.
func (s *availabilityStore) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	caregiverID, holdID, err := sealer.ParseReservationToken(token)
	if err != nil {
		return apperrors.InvalidInput("Invalid reservation token")
	}

	deleted, err := s.holds.Delete(ctx, holdID)
	if err != nil {
		s.cfg.Log.Error("Failed to release hold", "hold_id", holdID, "error", err)
		return apperrors.Internal("Failed to release reservation", err)
	}

	if deleted {
		s.cfg.Log.Info("Reservation released", "caregiver_id", caregiverID, "hold_id", holdID)
	}
	return nil
}

// conflictError reports the requested interval and, for an overlap, the
// existing held interval that blocks it. Nothing else about the conflicting
// booking is disclosed.
func conflictError(conflict *probeConflict, iv interval.Interval) error {
	details := map[string]any{
		"requested_start": iv.Start,
		"requested_end":   iv.End,
	}
	if conflict != nil {
		switch {
		case errors.Is(conflict.reason, availabilityerrors.ErrOutsideAvailability):
			details["reason"] = "outside_availability"
		case errors.Is(conflict.reason, availabilityerrors.ErrIntervalHeld):
			details["reason"] = "overlaps_existing_booking"
			if conflict.held != nil {
				details["conflicting_start"] = conflict.held.Start
				details["conflicting_end"] = conflict.held.End
			}
		}
	}
	return apperrors.Conflict("Requested interval is not available").WithDetails(details)
}
