package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	availabilityerrors "carebook/internal/availability/errors"
	"carebook/internal/availability/repository"
	"carebook/internal/availability/validator"
	"carebook/pkg/config"
	mongotx "carebook/pkg/db/mongo"
	apperrors "carebook/pkg/errors"
	"carebook/pkg/interval"
	"carebook/pkg/logger"
	"carebook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockWindowRepo struct {
	createFn          func(ctx context.Context, window *model.AvailabilityWindow) error
	findByIDFn        func(ctx context.Context, id string) (*model.AvailabilityWindow, error)
	findByCaregiverFn func(ctx context.Context, caregiverID string, from, to *time.Time) ([]*model.AvailabilityWindow, error)
	findOverlappingFn func(ctx context.Context, caregiverID string, iv interval.Interval) ([]*model.AvailabilityWindow, error)
	findCoveringFn    func(ctx context.Context, caregiverID string, iv interval.Interval) (*model.AvailabilityWindow, error)
	deleteFn          func(ctx context.Context, id string) error
}

func (m *mockWindowRepo) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	return m.createFn(ctx, window)
}

func (m *mockWindowRepo) FindByID(ctx context.Context, id string) (*model.AvailabilityWindow, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockWindowRepo) FindByCaregiver(ctx context.Context, caregiverID string, from, to *time.Time) ([]*model.AvailabilityWindow, error) {
	return m.findByCaregiverFn(ctx, caregiverID, from, to)
}

func (m *mockWindowRepo) FindOverlapping(ctx context.Context, caregiverID string, iv interval.Interval) ([]*model.AvailabilityWindow, error) {
	return m.findOverlappingFn(ctx, caregiverID, iv)
}

func (m *mockWindowRepo) FindCovering(ctx context.Context, caregiverID string, iv interval.Interval) (*model.AvailabilityWindow, error) {
	return m.findCoveringFn(ctx, caregiverID, iv)
}

func (m *mockWindowRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// memHoldRepo is an in-memory hold store used to exercise the reserve
// critical section for real.
type memHoldRepo struct {
	mu    sync.Mutex
	holds map[string]*model.ReservationHold
}

func newMemHoldRepo() *memHoldRepo {
	return &memHoldRepo{holds: make(map[string]*model.ReservationHold)}
}

func (m *memHoldRepo) Create(_ context.Context, hold *model.ReservationHold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds[hold.ID] = hold
	return nil
}

func (m *memHoldRepo) FindByID(_ context.Context, id string) (*model.ReservationHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hold, ok := m.holds[id]; ok {
		return hold, nil
	}
	return nil, errors.New("not found")
}

func (m *memHoldRepo) FindOverlapping(_ context.Context, caregiverID string, iv interval.Interval) ([]*model.ReservationHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ReservationHold
	for _, hold := range m.holds {
		if hold.CaregiverID == caregiverID && hold.StartTime.Before(iv.End) && hold.EndTime.After(iv.Start) {
			out = append(out, hold)
		}
	}
	return out, nil
}

func (m *memHoldRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holds[id]; !ok {
		return false, nil
	}
	delete(m.holds, id)
	return true, nil
}

func (m *memHoldRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

var _ repository.HoldRepository = (*memHoldRepo)(nil)
var _ repository.WindowRepository = (*mockWindowRepo)(nil)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SlotGranularity: 15 * time.Minute,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  "json",
			Service: "test",
		}),
	}
}

func testStore(t *testing.T, windows repository.WindowRepository, holds repository.HoldRepository) AvailabilityStore {
	t.Helper()
	cfg := testConfig(t)
	return NewAvailabilityStore(windows, holds, NewKeyedLock(), validator.NewWindowValidator(cfg.Log), cfg)
}

func slot(t *testing.T, hour, durHours int) interval.Interval {
	t.Helper()
	start := time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.Add(time.Duration(durHours)*time.Hour))
	if err != nil {
		t.Fatalf("bad slot: %v", err)
	}
	return iv
}

func coveringWindow(caregiverID string) func(ctx context.Context, id string, iv interval.Interval) (*model.AvailabilityWindow, error) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	return func(_ context.Context, _ string, _ interval.Interval) (*model.AvailabilityWindow, error) {
		return &model.AvailabilityWindow{
			ID:          "w1",
			CaregiverID: caregiverID,
			StartTime:   day.Add(8 * time.Hour),
			EndTime:     day.Add(18 * time.Hour),
		}, nil
	}
}

func TestPublishWindow_RejectsOverlap(t *testing.T) {
	existing := &model.AvailabilityWindow{
		ID:          "w1",
		CaregiverID: "cg-1",
		StartTime:   time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC),
	}
	windows := &mockWindowRepo{
		findOverlappingFn: func(_ context.Context, _ string, _ interval.Interval) ([]*model.AvailabilityWindow, error) {
			return []*model.AvailabilityWindow{existing}, nil
		},
	}
	store := testStore(t, windows, newMemHoldRepo())

	err := store.PublishWindow(context.Background(), &model.AvailabilityWindow{
		CaregiverID: "cg-1",
		StartTime:   time.Date(2026, 9, 14, 11, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 9, 14, 14, 0, 0, 0, time.UTC),
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPublishWindow_RejectsMisalignedEndpoints(t *testing.T) {
	store := testStore(t, &mockWindowRepo{}, newMemHoldRepo())

	err := store.PublishWindow(context.Background(), &model.AvailabilityWindow{
		CaregiverID: "cg-1",
		StartTime:   time.Date(2026, 9, 14, 9, 7, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC),
	})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPublishWindow_AbuttingWindowsAllowed(t *testing.T) {
	var created *model.AvailabilityWindow
	windows := &mockWindowRepo{
		findOverlappingFn: func(_ context.Context, _ string, _ interval.Interval) ([]*model.AvailabilityWindow, error) {
			// Half-open intervals: [9,12) and [12,15) do not overlap.
			return nil, nil
		},
		createFn: func(_ context.Context, w *model.AvailabilityWindow) error {
			created = w
			return nil
		},
	}
	store := testStore(t, windows, newMemHoldRepo())

	err := store.PublishWindow(context.Background(), &model.AvailabilityWindow{
		CaregiverID: "cg-1",
		StartTime:   time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.ID == "" {
		t.Fatal("window was not created with a generated id")
	}
}

func TestReserve_OutsideAvailability(t *testing.T) {
	windows := &mockWindowRepo{
		findCoveringFn: func(_ context.Context, _ string, _ interval.Interval) (*model.AvailabilityWindow, error) {
			return nil, availabilityerrors.ErrOutsideAvailability
		},
	}
	store := testStore(t, windows, newMemHoldRepo())

	_, err := store.Reserve(context.Background(), "cg-1", slot(t, 9, 1))
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Details["reason"] != "outside_availability" {
		t.Errorf("expected outside_availability reason, got %v", appErr.Details["reason"])
	}
}

func TestReserve_ThenOverlapConflicts(t *testing.T) {
	windows := &mockWindowRepo{findCoveringFn: coveringWindow("cg-1")}
	store := testStore(t, windows, newMemHoldRepo())

	token, err := store.Reserve(context.Background(), "cg-1", slot(t, 9, 2))
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reservation token")
	}

	_, err = store.Reserve(context.Background(), "cg-1", slot(t, 10, 2))
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict for overlapping reserve, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Details["reason"] != "overlaps_existing_booking" {
		t.Errorf("expected overlaps_existing_booking reason, got %v", appErr.Details["reason"])
	}

	held := slot(t, 9, 2)
	if appErr.Details["conflicting_start"] != held.Start || appErr.Details["conflicting_end"] != held.End {
		t.Errorf("conflict should name the held interval %v-%v, got %v-%v",
			held.Start, held.End, appErr.Details["conflicting_start"], appErr.Details["conflicting_end"])
	}
	requested := slot(t, 10, 2)
	if appErr.Details["requested_start"] != requested.Start {
		t.Errorf("conflict should echo the requested start %v, got %v",
			requested.Start, appErr.Details["requested_start"])
	}
}

func TestReserve_ConcurrentSameSlotOneWinner(t *testing.T) {
	windows := &mockWindowRepo{findCoveringFn: coveringWindow("cg-1")}
	store := testStore(t, windows, newMemHoldRepo())
	iv := slot(t, 9, 1)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Reserve(context.Background(), "cg-1", iv)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperrors.HasCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (conflicts %d)", wins, conflicts)
	}
}

func TestReleaseFreesSlotForRebooking(t *testing.T) {
	windows := &mockWindowRepo{findCoveringFn: coveringWindow("cg-1")}
	store := testStore(t, windows, newMemHoldRepo())
	iv := slot(t, 9, 1)

	token, err := store.Reserve(context.Background(), "cg-1", iv)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := store.Release(context.Background(), token); err != nil {
		t.Fatalf("release: %v", err)
	}

	if _, err := store.Reserve(context.Background(), "cg-1", iv); err != nil {
		t.Fatalf("rebook after release: %v", err)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	windows := &mockWindowRepo{findCoveringFn: coveringWindow("cg-1")}
	store := testStore(t, windows, newMemHoldRepo())

	token, err := store.Reserve(context.Background(), "cg-1", slot(t, 9, 1))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := store.Release(context.Background(), token); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := store.Release(context.Background(), token); err != nil {
		t.Fatalf("second release should be a no-op, got %v", err)
	}
	if err := store.Release(context.Background(), ""); err != nil {
		t.Fatalf("empty token release should be a no-op, got %v", err)
	}
}

func TestRelease_RejectsGarbageToken(t *testing.T) {
	store := testStore(t, &mockWindowRepo{}, newMemHoldRepo())

	err := store.Release(context.Background(), "not-a-token")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestIsFree(t *testing.T) {
	windows := &mockWindowRepo{findCoveringFn: coveringWindow("cg-1")}
	store := testStore(t, windows, newMemHoldRepo())
	iv := slot(t, 9, 1)

	free, err := store.IsFree(context.Background(), "cg-1", iv)
	if err != nil || !free {
		t.Fatalf("expected free, got free=%v err=%v", free, err)
	}

	if _, err := store.Reserve(context.Background(), "cg-1", iv); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	free, err = store.IsFree(context.Background(), "cg-1", iv)
	if err != nil || free {
		t.Fatalf("expected not free after reserve, got free=%v err=%v", free, err)
	}
}
