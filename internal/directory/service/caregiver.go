package service

import (
	"context"
	"errors"
	"sync"
	"time"

	directoryerrors "carebook/internal/directory/errors"
	"carebook/internal/directory/repository"
	"carebook/internal/directory/validator"
	"carebook/pkg/config"
	apperrors "carebook/pkg/errors"
	"carebook/pkg/interval"
	"carebook/pkg/model"
	"carebook/pkg/sanitizer"

	"github.com/google/uuid"
)

// CaregiverService is the scheduler's caregiver directory: profile CRUD plus
// the two lookups the booking orchestrator delegates here, the specialty
// check and the price quote.
type CaregiverService interface {
	Create(ctx context.Context, caregiver *model.Caregiver) error
	GetByID(ctx context.Context, id string) (*model.Caregiver, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Caregiver, int64, error)
	Update(ctx context.Context, id string, updates *model.CaregiverUpdate) (*model.Caregiver, error)
	Delete(ctx context.Context, id string) error
	Quote(ctx context.Context, caregiverID string, specialty model.Specialty, iv interval.Interval) (*model.Caregiver, int64, error)
}

type caregiverService struct {
	repo      repository.CaregiverRepository
	validator *validator.CaregiverValidator
	cfg       *config.Config
}

func NewCaregiverService(
	repo repository.CaregiverRepository,
	validator *validator.CaregiverValidator,
	cfg *config.Config,
) CaregiverService {
	return &caregiverService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *caregiverService) Create(ctx context.Context, caregiver *model.Caregiver) error {
	s.applyDefaults(caregiver)
	s.sanitize(caregiver)

	if err := s.validator.ValidateCaregiver(caregiver); err != nil {
		s.cfg.Log.Warn("Caregiver validation failed", "error", err)
		return apperrors.Validation("Invalid caregiver profile", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, caregiver); err != nil {
		s.cfg.Log.Error("Failed to create caregiver", "error", err)
		return apperrors.Internal("Failed to create caregiver", err)
	}

	s.cfg.Log.Info("Caregiver created successfully",
		"id", caregiver.ID,
		"specialties", caregiver.Specialties,
	)
	return nil
}

func (s *caregiverService) applyDefaults(caregiver *model.Caregiver) {
	if caregiver.ID == "" {
		caregiver.ID = uuid.New().String()
	}
	if caregiver.Policy == (model.CancellationPolicy{}) {
		free, partial, pct := s.cfg.DefaultPolicy()
		caregiver.Policy = model.CancellationPolicy{
			FreeCancelMin:    free,
			PartialRefundMin: partial,
			PartialRefundPct: pct,
		}
	}
}

func (s *caregiverService) sanitize(caregiver *model.Caregiver) {
	caregiver.DisplayName = sanitizer.NormalizeName(caregiver.DisplayName)

	raw := make([]string, 0, len(caregiver.Specialties))
	for _, sp := range caregiver.Specialties {
		raw = append(raw, string(sp))
	}
	cleaned := sanitizer.NormalizeSpecialties(raw)
	caregiver.Specialties = caregiver.Specialties[:0]
	for _, sp := range cleaned {
		caregiver.Specialties = append(caregiver.Specialties, model.Specialty(sp))
	}
}

func (s *caregiverService) GetByID(ctx context.Context, id string) (*model.Caregiver, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Caregiver ID cannot be empty")
	}

	caregiver, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, directoryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Caregiver", id)
		}
		return nil, apperrors.Internal("Failed to retrieve caregiver", err)
	}

	return caregiver, nil
}

func (s *caregiverService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Caregiver, int64, error) {
	var count int64
	var caregivers []*model.Caregiver
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count caregivers", "error", errCount)
			errCount = apperrors.Internal("Failed to count caregivers", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		caregivers, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list caregivers", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve caregivers", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return caregivers, count, nil
}

func (s *caregiverService) Update(ctx context.Context, id string, updates *model.CaregiverUpdate) (*model.Caregiver, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Caregiver ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, directoryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Caregiver", id)
		}
		return nil, apperrors.Internal("Failed to check caregiver existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Caregiver update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	s.sanitize(merged)
	if err := s.validator.ValidateCaregiver(merged); err != nil {
		return nil, apperrors.Validation("Invalid caregiver profile", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, directoryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Caregiver", id)
		}
		s.cfg.Log.Error("Failed to update caregiver", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update caregiver", err)
	}

	s.cfg.Log.Info("Caregiver updated successfully", "id", id)
	return merged, nil
}

func (s *caregiverService) merge(existing *model.Caregiver, updates *model.CaregiverUpdate) *model.Caregiver {
	merged := *existing

	if updates.DisplayName != "" {
		merged.DisplayName = updates.DisplayName
	}
	if len(updates.Specialties) > 0 {
		merged.Specialties = updates.Specialties
	}
	if updates.HourlyRateCents != nil {
		merged.HourlyRateCents = *updates.HourlyRateCents
	}
	if updates.Currency != "" {
		merged.Currency = updates.Currency
	}
	if updates.TimeZone != "" {
		merged.TimeZone = updates.TimeZone
	}
	if updates.Policy != nil {
		// Policy edits apply to future bookings only; existing appointments
		// keep their snapshot.
		merged.Policy = *updates.Policy
	}

	return &merged
}

func (s *caregiverService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Caregiver ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, directoryerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Caregiver", id)
		}
		s.cfg.Log.Error("Failed to delete caregiver", "id", id, "error", err)
		return apperrors.Internal("Failed to delete caregiver", err)
	}

	s.cfg.Log.Info("Caregiver deleted successfully", "id", id)
	return nil
}

// Quote verifies the caregiver offers the specialty and computes the price
// for the interval from the hourly rate. Duration is billed pro rata to the
// minute.
func (s *caregiverService) Quote(ctx context.Context, caregiverID string, specialty model.Specialty, iv interval.Interval) (*model.Caregiver, int64, error) {
	caregiver, err := s.GetByID(ctx, caregiverID)
	if err != nil {
		return nil, 0, err
	}

	if !caregiver.Offers(specialty) {
		return nil, 0, apperrors.Validation("Caregiver does not offer the requested specialty", map[string]any{
			"caregiver_id": caregiverID,
			"specialty":    specialty,
		})
	}

	minutes := int64(iv.Duration() / time.Minute)
	price := caregiver.HourlyRateCents * minutes / 60

	return caregiver, price, nil
}
