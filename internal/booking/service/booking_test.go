package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	availability "carebook/internal/availability/service"
	bookingerrors "carebook/internal/booking/errors"
	"carebook/internal/booking/validator"
	"carebook/internal/notify"
	"carebook/internal/payments"
	"carebook/pkg/config"
	apperrors "carebook/pkg/errors"
	"carebook/pkg/interval"
	"carebook/pkg/logger"
	"carebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// memAppointmentRepo implements the repository against a map, including the
// version-conditional update semantics.
type memAppointmentRepo struct {
	mu    sync.Mutex
	appts map[string]*model.Appointment
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{appts: make(map[string]*model.Appointment)}
}

func (m *memAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1
	stored := *appt
	m.appts[appt.ID] = &stored
	return nil
}

func (m *memAppointmentRepo) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return nil, bookingerrors.ErrAppointmentNotFound
	}
	copy := *appt
	return &copy, nil
}

func (m *memAppointmentRepo) FindByCaregiver(_ context.Context, caregiverID string, _ int, _ int64) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for _, appt := range m.appts {
		if appt.CaregiverID == caregiverID {
			copy := *appt
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *memAppointmentRepo) UpdateStatus(_ context.Context, appt *model.Appointment, next model.Status, set bson.M) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.appts[appt.ID]
	if !ok {
		return nil, bookingerrors.ErrAppointmentNotFound
	}
	if stored.Status != appt.Status || stored.Version != appt.Version {
		return nil, bookingerrors.ErrVersionMismatch
	}
	stored.Status = next
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	for key, value := range set {
		switch key {
		case "hold_ref":
			stored.HoldRef = value.(string)
		case "refund_tier":
			stored.RefundTier = value.(model.RefundTier)
		case "cancelled_by":
			stored.CancelledBy = value.(string)
		}
	}
	copy := *stored
	return &copy, nil
}

func (m *memAppointmentRepo) FindConfirmedEndedBefore(_ context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for _, appt := range m.appts {
		if appt.Status == model.StatusConfirmed && !appt.EndTime.After(cutoff) {
			copy := *appt
			out = append(out, &copy)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// memStore is a minimal availability store: a set of held tokens guarded by
// a mutex, every caregiver considered published unless configured otherwise.
type memStore struct {
	mu       sync.Mutex
	next     int
	held     map[string]interval.Interval
	covered  bool
	reserved int
	released int
}

func newMemStore() *memStore {
	return &memStore{held: make(map[string]interval.Interval), covered: true}
}

func (s *memStore) PublishWindow(context.Context, *model.AvailabilityWindow) error { return nil }

func (s *memStore) Windows(context.Context, string, *time.Time, *time.Time) ([]*model.AvailabilityWindow, error) {
	return nil, nil
}

func (s *memStore) IsFree(_ context.Context, _ string, iv interval.Interval) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.covered {
		return false, nil
	}
	for _, held := range s.held {
		if interval.Overlaps(held, iv) {
			return false, nil
		}
	}
	return true, nil
}

func (s *memStore) Reserve(_ context.Context, _ string, iv interval.Interval) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.covered {
		return "", apperrors.Conflict("Requested interval is not available").WithDetails(map[string]any{
			"reason": "outside_availability",
		})
	}
	for _, held := range s.held {
		if interval.Overlaps(held, iv) {
			return "", apperrors.Conflict("Requested interval is not available").WithDetails(map[string]any{
				"reason": "overlaps_existing_booking",
			})
		}
	}
	s.next++
	token := string(rune('a' + s.next))
	s.held[token] = iv
	s.reserved++
	return token, nil
}

func (s *memStore) Release(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.held[token]; ok {
		delete(s.held, token)
		s.released++
	}
	return nil
}

var _ availability.AvailabilityStore = (*memStore)(nil)

type mockCaregivers struct {
	caregiver *model.Caregiver
	quoteErr  error
}

func (m *mockCaregivers) Create(context.Context, *model.Caregiver) error { return nil }
func (m *mockCaregivers) GetByID(context.Context, string) (*model.Caregiver, error) {
	return m.caregiver, nil
}
func (m *mockCaregivers) GetAll(context.Context, int, int64) ([]*model.Caregiver, int64, error) {
	return nil, 0, nil
}
func (m *mockCaregivers) Update(context.Context, string, *model.CaregiverUpdate) (*model.Caregiver, error) {
	return m.caregiver, nil
}
func (m *mockCaregivers) Delete(context.Context, string) error { return nil }

func (m *mockCaregivers) Quote(_ context.Context, _ string, _ model.Specialty, iv interval.Interval) (*model.Caregiver, int64, error) {
	if m.quoteErr != nil {
		return nil, 0, m.quoteErr
	}
	minutes := int64(iv.Duration() / time.Minute)
	return m.caregiver, m.caregiver.HourlyRateCents * minutes / 60, nil
}

type mockPayments struct {
	mu           sync.Mutex
	holdErr      error
	holds        int
	lastCurrency string
	releases     int
	refunds      []int64
}

func (m *mockPayments) PlaceHold(_ context.Context, appointmentID, _ string, _ int64, currency string) (payments.HoldRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holdErr != nil {
		return "", m.holdErr
	}
	m.holds++
	m.lastCurrency = currency
	return payments.HoldRef("hold-" + appointmentID), nil
}

func (m *mockPayments) ReleaseHold(context.Context, payments.HoldRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	return nil
}

func (m *mockPayments) Refund(_ context.Context, _ payments.HoldRef, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds = append(m.refunds, amountCents)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.EventKind
}

func (r *recordingNotifier) AppointmentChanged(_ context.Context, kind notify.EventKind, _ *model.Appointment, _ *int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *recordingNotifier) kinds() []notify.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.EventKind(nil), r.events...)
}

type fixture struct {
	svc        *bookingService
	repo       *memAppointmentRepo
	store      *memStore
	caregivers *mockCaregivers
	payments   *mockPayments
	notifier   *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		SlotGranularity:    15 * time.Minute,
		PaymentHoldTimeout: time.Second,
		CompletionSweep:    time.Minute,
		WriteTimeout:       time.Second,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  "json",
			Service: "test",
		}),
	}

	f := &fixture{
		repo:     newMemAppointmentRepo(),
		store:    newMemStore(),
		payments: &mockPayments{},
		notifier: &recordingNotifier{},
	}

	f.caregivers = &mockCaregivers{caregiver: &model.Caregiver{
		ID:              "cg-1",
		DisplayName:     "Dana",
		Specialties:     []model.Specialty{model.SpecialtyChildCare},
		HourlyRateCents: 3000,
		Currency:        "USD",
		TimeZone:        "UTC",
		Policy: model.CancellationPolicy{
			FreeCancelMin:    24 * 60,
			PartialRefundMin: 2 * 60,
			PartialRefundPct: 50,
		},
	}}

	svc := NewBookingService(
		f.repo,
		f.store,
		f.caregivers,
		f.payments,
		f.notifier,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	).(*bookingService)
	f.svc = svc
	return f
}

func futureSlot(hours int) (time.Time, time.Time) {
	start := time.Now().UTC().Truncate(time.Hour).Add(48 * time.Hour)
	return start, start.Add(time.Duration(hours) * time.Hour)
}

func validRequest() *model.BookingRequest {
	start, end := futureSlot(2)
	return &model.BookingRequest{
		CaregiverID:  "cg-1",
		CareseekerID: "cs-1",
		Specialty:    model.SpecialtyChildCare,
		StartTime:    start,
		EndTime:      end,
	}
}

func TestBook_ConfirmsAndPrices(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if appt.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", appt.Status)
	}
	if appt.PriceCents != 6000 {
		t.Errorf("expected 6000 cents for 2h at 3000/h, got %d", appt.PriceCents)
	}
	if appt.HoldRef == "" {
		t.Error("expected hold ref on confirmed appointment")
	}
	if appt.Policy.FreeCancelMin != 24*60 {
		t.Error("expected policy snapshot on appointment")
	}
	if appt.Version != 2 {
		t.Errorf("expected version 2 after create+confirm, got %d", appt.Version)
	}
	if kinds := f.notifier.kinds(); len(kinds) != 1 || kinds[0] != notify.EventConfirmed {
		t.Errorf("expected one confirmed event, got %v", kinds)
	}
}

func TestBook_HoldUsesCaregiverCurrency(t *testing.T) {
	f := newFixture(t)
	f.caregivers.caregiver.Currency = "EUR"

	appt, err := f.svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if appt.Currency != "EUR" {
		t.Errorf("expected appointment priced in EUR, got %s", appt.Currency)
	}
	if f.payments.lastCurrency != "EUR" {
		t.Errorf("expected hold placed in EUR, got %q", f.payments.lastCurrency)
	}
}

func TestBook_OutsideAvailabilityLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	f.store.covered = false

	_, err := f.svc.Book(context.Background(), validRequest())
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if len(f.repo.appts) != 0 {
		t.Errorf("expected no appointment record, got %d", len(f.repo.appts))
	}
	if f.payments.holds != 0 {
		t.Error("no payment hold should be attempted for an unavailable slot")
	}
}

func TestBook_PaymentHoldFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.payments.holdErr = errors.New("card declined")

	req := validRequest()
	_, err := f.svc.Book(context.Background(), req)
	if !apperrors.HasCode(err, apperrors.CodePaymentHold) {
		t.Fatalf("expected payment hold error, got %v", err)
	}

	// The appointment is recorded as failed, not deleted.
	var failed *model.Appointment
	for _, appt := range f.repo.appts {
		failed = appt
	}
	if failed == nil || failed.Status != model.StatusFailed {
		t.Fatalf("expected a failed appointment record, got %+v", failed)
	}

	// The slot is free again.
	if f.store.released != f.store.reserved {
		t.Errorf("reservation not released: reserved=%d released=%d", f.store.reserved, f.store.released)
	}
	f.payments.holdErr = nil
	if _, err := f.svc.Book(context.Background(), req); err != nil {
		t.Fatalf("rebook after failed hold: %v", err)
	}
}

func TestBook_PaymentRollbackSurvivesCancelledRequestContext(t *testing.T) {
	f := newFixture(t)
	f.payments.holdErr = errors.New("processor timeout")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Book(ctx, validRequest())
	if err == nil {
		t.Fatal("expected error")
	}

	// Rollback runs on a detached context, so the hold must be gone even
	// though the request context is already cancelled.
	if f.store.reserved > 0 && f.store.released != f.store.reserved {
		t.Errorf("rollback did not run on detached context: reserved=%d released=%d",
			f.store.reserved, f.store.released)
	}
}

func TestBook_RejectsUnknownSpecialty(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Specialty = "juggling"
	if _, err := f.svc.Book(context.Background(), req); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBook_RejectsMisalignedTimes(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.StartTime = req.StartTime.Add(7 * time.Minute)
	req.EndTime = req.EndTime.Add(7 * time.Minute)
	if _, err := f.svc.Book(context.Background(), req); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBook_RejectsPastStart(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.StartTime = time.Now().UTC().Truncate(time.Hour).Add(-24 * time.Hour)
	req.EndTime = req.StartTime.Add(time.Hour)
	if _, err := f.svc.Book(context.Background(), req); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBook_SpecialtyNotOffered(t *testing.T) {
	f := newFixture(t)
	f.caregivers.quoteErr = apperrors.Validation(
		"Caregiver does not offer the requested specialty", nil)

	if _, err := f.svc.Book(context.Background(), validRequest()); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBook_UnknownCaregiver(t *testing.T) {
	f := newFixture(t)
	f.caregivers.quoteErr = apperrors.NotFoundWithID("Caregiver", "cg-1")

	if _, err := f.svc.Book(context.Background(), validRequest()); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.store.reserved != 0 {
		t.Fatalf("no reservation should happen for an unknown caregiver, got %d", f.store.reserved)
	}
}

func TestBook_ConcurrentSameSlotOneWinner(t *testing.T) {
	f := newFixture(t)

	const attempts = 6
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), validRequest())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one confirmed booking, got %d", wins)
	}
	if f.payments.holds != 1 {
		t.Errorf("expected exactly one payment hold, got %d", f.payments.holds)
	}
}

func TestBook_ConcurrentRandomSlotsNeverOverlap(t *testing.T) {
	f := newFixture(t)

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	t.Logf("seed %d", seed)

	// Random slot-aligned intervals over an 8-hour stretch, short enough
	// that many of them collide.
	base, _ := futureSlot(1)
	const attempts = 40
	requests := make([]*model.BookingRequest, attempts)
	for i := range requests {
		start := base.Add(time.Duration(rng.Intn(32)*15) * time.Minute)
		end := start.Add(time.Duration((1+rng.Intn(8))*15) * time.Minute)
		requests[i] = &model.BookingRequest{
			CaregiverID:  "cg-1",
			CareseekerID: fmt.Sprintf("cs-%d", i),
			Specialty:    model.SpecialtyChildCare,
			StartTime:    start,
			EndTime:      end,
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for _, req := range requests {
		wg.Add(1)
		go func(req *model.BookingRequest) {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), req)
			errs <- err
		}(req)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	appts, err := f.repo.FindByCaregiver(context.Background(), "cg-1", 0, 0)
	if err != nil {
		t.Fatalf("find by caregiver: %v", err)
	}
	var live []*model.Appointment
	for _, appt := range appts {
		if appt.Status == model.StatusRequested || appt.Status == model.StatusConfirmed {
			live = append(live, appt)
		}
	}
	if len(live) == 0 {
		t.Fatal("expected at least one booking to win")
	}
	for i := 0; i < len(live); i++ {
		a, err := interval.New(live[i].StartTime, live[i].EndTime)
		if err != nil {
			t.Fatalf("stored interval: %v", err)
		}
		for j := i + 1; j < len(live); j++ {
			b, err := interval.New(live[j].StartTime, live[j].EndTime)
			if err != nil {
				t.Fatalf("stored interval: %v", err)
			}
			if interval.Overlaps(a, b) {
				t.Errorf("bookings %s and %s overlap: [%s, %s) vs [%s, %s)",
					live[i].ID, live[j].ID,
					a.Start.Format(time.RFC3339), a.End.Format(time.RFC3339),
					b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
			}
		}
	}
}

func confirmedAppointment(t *testing.T, f *fixture) *model.Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func TestCancel_FullRefundTier(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if cancelled.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.RefundTier != model.RefundFull {
		t.Errorf("expected full tier 48h out, got %s", cancelled.RefundTier)
	}
	if cancelled.CancelledBy != "cs-1" {
		t.Errorf("expected cancelled_by cs-1, got %q", cancelled.CancelledBy)
	}
	// Full refund releases the hold instead of a partial capture.
	if f.payments.releases != 1 {
		t.Errorf("expected hold release, got %d releases %v refunds", f.payments.releases, f.payments.refunds)
	}
	if f.store.released != f.store.reserved {
		t.Error("expected reservation released on cancel")
	}
}

func TestCancel_PartialRefundTier(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	// 3 hours before start: inside partial window (2h..24h).
	f.svc.now = func() time.Time { return appt.StartTime.Add(-3 * time.Hour) }

	actor := model.Actor{ID: "cg-1", Role: model.RoleCaregiver}
	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if cancelled.RefundTier != model.RefundPartial {
		t.Errorf("expected partial tier, got %s", cancelled.RefundTier)
	}
	if len(f.payments.refunds) != 1 || f.payments.refunds[0] != 3000 {
		t.Errorf("expected 50%% refund of 6000, got %v", f.payments.refunds)
	}
}

func TestCancel_NoRefundTier(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	f.svc.now = func() time.Time { return appt.StartTime.Add(-30 * time.Minute) }

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.RefundTier != model.RefundNone {
		t.Errorf("expected none tier, got %s", cancelled.RefundTier)
	}
	if len(f.payments.refunds) != 1 || f.payments.refunds[0] != 0 {
		t.Errorf("expected zero refund, got %v", f.payments.refunds)
	}
}

func TestCancel_PolicySnapshotIgnoresLaterEdits(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	// Tighten the caregiver's live policy after booking.
	f.caregivers.caregiver.Policy = model.CancellationPolicy{
		FreeCancelMin:    7 * 24 * 60,
		PartialRefundMin: 3 * 24 * 60,
		PartialRefundPct: 10,
	}

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// 48h out was a full refund under the snapshotted policy.
	if cancelled.RefundTier != model.RefundFull {
		t.Errorf("expected snapshot policy to rule, got tier %s", cancelled.RefundTier)
	}
}

func TestCancel_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "someone-else", Role: model.RoleCareseeker}
	if _, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCancel_StaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	if _, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version-1, actor); !apperrors.HasCode(err, apperrors.CodeStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}
}

func TestCancel_TerminalStateRejected(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor)
	if err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), appt.ID, cancelled.Version, actor); !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition for second cancel, got %v", err)
	}

	stored, err := f.repo.FindByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("find after second cancel: %v", err)
	}
	if stored.Status != model.StatusCancelled {
		t.Fatalf("second cancel must not change state, got %s", stored.Status)
	}
}

func TestComplete_CancelledRejected(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	if _, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	f.svc.now = func() time.Time { return appt.EndTime.Add(time.Minute) }
	caregiver := model.Actor{ID: "cg-1", Role: model.RoleCaregiver}
	if _, err := f.svc.Complete(context.Background(), appt.ID, appt.Version+1, caregiver); !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition completing a cancelled appointment, got %v", err)
	}
}

func TestCancel_FreesSlotForRebooking(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "cs-1", Role: model.RoleCareseeker}
	if _, err := f.svc.Cancel(context.Background(), appt.ID, appt.Version, actor); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestComplete_BeforeEndRejected(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	actor := model.Actor{ID: "cg-1", Role: model.RoleCaregiver}
	if _, err := f.svc.Complete(context.Background(), appt.ID, appt.Version, actor); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict before end time, got %v", err)
	}
}

func TestComplete_AfterEnd(t *testing.T) {
	f := newFixture(t)
	appt := confirmedAppointment(t, f)

	f.svc.now = func() time.Time { return appt.EndTime.Add(time.Minute) }

	actor := model.Actor{ID: "cg-1", Role: model.RoleCaregiver}
	completed, err := f.svc.Complete(context.Background(), appt.ID, appt.Version, actor)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if f.store.released != f.store.reserved {
		t.Error("expected reservation released on completion")
	}
	kinds := f.notifier.kinds()
	if kinds[len(kinds)-1] != notify.EventCompleted {
		t.Errorf("expected completed event, got %v", kinds)
	}
}
