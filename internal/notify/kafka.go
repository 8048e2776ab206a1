package notify

import (
	"context"
	"time"

	"carebook/pkg/kafka"
	"carebook/pkg/logger"
	"carebook/pkg/model"
)

const sourceService = "scheduler"

// KafkaNotifier publishes lifecycle events to the appointment events topic,
// keyed by caregiver so events for one caregiver stay ordered.
type KafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		log:      log.With("component", "notifier"),
	}
}

func (n *KafkaNotifier) AppointmentChanged(ctx context.Context, kind EventKind, appt *model.Appointment, refundCents *int64) {
	event := AppointmentEvent{
		Kind:          kind,
		AppointmentID: appt.ID,
		CaregiverID:   appt.CaregiverID,
		CareseekerID:  appt.CareseekerID,
		Status:        string(appt.Status),
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		RefundCents:   refundCents,
		OccurredAt:    time.Now(),
	}

	msg := kafka.NewMessage().
		WithKey(appt.CaregiverID).
		WithValue(event).
		WithEventType(string(kind)).
		WithSource(sourceService).
		WithSchemaVersion("1.0").
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Error("failed to publish appointment event",
			"kind", string(kind),
			"appointment_id", appt.ID,
			"error", err)
	}
}

// Close flushes and shuts down the underlying producer.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
