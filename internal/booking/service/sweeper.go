package service

import (
	"context"
	"sync"
	"time"

	availability "carebook/internal/availability/service"
	"carebook/internal/booking/repository"
	"carebook/internal/notify"
	"carebook/pkg/config"
	"carebook/pkg/logger"
	"carebook/pkg/model"
)

const sweepBatchSize = 100

// CompletionSweeper periodically marks confirmed appointments whose end time
// has passed as completed, so finished engagements do not need a manual
// completion call. Each transition goes through the same version-conditional
// update as the API path; a concurrent cancel or complete wins and the
// sweeper just skips that appointment.
type CompletionSweeper struct {
	appointments repository.AppointmentRepository
	store        availability.AvailabilityStore
	notifier     notify.Notifier
	interval     time.Duration
	log          *logger.Logger
	now          func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewCompletionSweeper(
	appointments repository.AppointmentRepository,
	store availability.AvailabilityStore,
	notifier notify.Notifier,
	cfg *config.Config,
) *CompletionSweeper {
	return &CompletionSweeper{
		appointments: appointments,
		store:        store,
		notifier:     notifier,
		interval:     cfg.CompletionSweep,
		log:          cfg.Log,
		now:          time.Now,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (s *CompletionSweeper) Start() {
	go s.run()
}

func (s *CompletionSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *CompletionSweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *CompletionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	appts, err := s.appointments.FindConfirmedEndedBefore(ctx, s.now(), sweepBatchSize)
	if err != nil {
		s.log.Error("completion sweep query failed", "error", err)
		return
	}

	for _, appt := range appts {
		completed, err := s.appointments.UpdateStatus(ctx, appt, model.StatusCompleted, nil)
		if err != nil {
			// Lost the race to a cancel or a manual complete.
			s.log.Debug("completion sweep skipped appointment",
				"appointment_id", appt.ID, "error", err)
			continue
		}

		if completed.ReservationToken != "" {
			if err := s.store.Release(ctx, completed.ReservationToken); err != nil {
				s.log.Error("completion sweep failed to release reservation",
					"appointment_id", completed.ID, "error", err)
			}
		}

		s.notifier.AppointmentChanged(ctx, notify.EventCompleted, completed, nil)

		s.log.Info("appointment auto-completed", "appointment_id", completed.ID)
	}
}
