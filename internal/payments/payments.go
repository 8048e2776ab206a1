package payments

import "context"

// HoldRef identifies a payment hold at the provider.
type HoldRef string

// Provider places and settles payment holds for bookings.
//
// PlaceHold authorizes amountCents in the given ISO 4217 currency
// without capturing it. The returned HoldRef is stored on the
// appointment and used to release or refund later. Implementations
// must honour ctx deadlines: a slow provider is treated as a failed
// hold by the caller.
type Provider interface {
	PlaceHold(ctx context.Context, appointmentID, payerID string, amountCents int64, currency string) (HoldRef, error)
	ReleaseHold(ctx context.Context, ref HoldRef) error
	Refund(ctx context.Context, ref HoldRef, amountCents int64) error
}
