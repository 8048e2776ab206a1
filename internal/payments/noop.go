package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NoopProvider approves every hold without talking to a processor.
// Used when no Stripe key is configured, and in tests.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (p *NoopProvider) PlaceHold(_ context.Context, appointmentID, _ string, _ int64, _ string) (HoldRef, error) {
	return HoldRef(fmt.Sprintf("noop-%s-%s", appointmentID, uuid.NewString())), nil
}

func (p *NoopProvider) ReleaseHold(_ context.Context, _ HoldRef) error {
	return nil
}

func (p *NoopProvider) Refund(_ context.Context, _ HoldRef, _ int64) error {
	return nil
}
