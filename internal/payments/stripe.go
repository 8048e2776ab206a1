package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"

	apperrors "carebook/pkg/errors"
	"carebook/pkg/logger"
)

// StripeProvider places holds as manually captured PaymentIntents.
// A hold that is never captured expires on Stripe's side; we cancel
// it explicitly on release so funds free up immediately.
type StripeProvider struct {
	log *logger.Logger
}

func NewStripeProvider(secretKey string, log *logger.Logger) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{log: log}
}

func (p *StripeProvider) PlaceHold(ctx context.Context, appointmentID, payerID string, amountCents int64, currency string) (HoldRef, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(strings.ToLower(currency)),
		Customer:      stripe.String(payerID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(fmt.Sprintf("hold-%s", appointmentID))
	params.AddMetadata("appointment_id", appointmentID)

	pi, err := paymentintent.New(params)
	if err != nil {
		p.log.Error("stripe hold failed", "appointment_id", appointmentID, "error", err)
		return "", apperrors.PaymentHold("payment hold was declined or timed out", err)
	}

	p.log.Info("payment hold placed", "appointment_id", appointmentID, "payment_intent", pi.ID, "amount_cents", amountCents)
	return HoldRef(pi.ID), nil
}

func (p *StripeProvider) ReleaseHold(ctx context.Context, ref HoldRef) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(string(ref), params); err != nil {
		p.log.Error("stripe hold release failed", "payment_intent", string(ref), "error", err)
		return apperrors.PaymentHold("failed to release payment hold", err)
	}
	return nil
}

func (p *StripeProvider) Refund(ctx context.Context, ref HoldRef, amountCents int64) error {
	if amountCents <= 0 {
		return nil
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(string(ref)),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(fmt.Sprintf("refund-%s-%d", ref, amountCents))
	if _, err := refund.New(params); err != nil {
		p.log.Error("stripe refund failed", "payment_intent", string(ref), "amount_cents", amountCents, "error", err)
		return apperrors.PaymentHold("failed to issue refund", err)
	}
	return nil
}
