package notify

import (
	"context"

	"carebook/pkg/model"
)

// NoopNotifier drops all events. Used when Kafka is not configured, and in
// tests.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) AppointmentChanged(_ context.Context, _ EventKind, _ *model.Appointment, _ *int64) {
}
