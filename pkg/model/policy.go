package model

import "time"

// RefundTier is the refund level a cancellation qualifies for. The scheduler
// computes the tier; executing the refund is the payments collaborator's job.
type RefundTier string

const (
	RefundFull    RefundTier = "full"
	RefundPartial RefundTier = "partial"
	RefundNone    RefundTier = "none"
)

// CancellationPolicy defines the refund tiers relative to the appointment
// start. Cancelling earlier than FreeCancelMin minutes before start refunds
// in full; earlier than PartialRefundMin refunds PartialRefundPct percent;
// later refunds nothing.
//
// The policy is snapshotted onto each appointment at booking time - a copy,
// never a reference to the caregiver's live policy record.
type CancellationPolicy struct {
	FreeCancelMin    int `json:"free_cancel_min" bson:"free_cancel_min" validate:"min=0"`
	PartialRefundMin int `json:"partial_refund_min" bson:"partial_refund_min" validate:"min=0"`
	PartialRefundPct int `json:"partial_refund_pct" bson:"partial_refund_pct" validate:"min=0,max=100"`
}

// TierAt returns the refund tier for a cancellation at the given moment.
func (p CancellationPolicy) TierAt(now, start time.Time) RefundTier {
	until := start.Sub(now)
	if until >= time.Duration(p.FreeCancelMin)*time.Minute {
		return RefundFull
	}
	if until >= time.Duration(p.PartialRefundMin)*time.Minute {
		return RefundPartial
	}
	return RefundNone
}

// RefundCents returns the amount to refund for the tier against the quoted
// price.
func (p CancellationPolicy) RefundCents(tier RefundTier, priceCents int64) int64 {
	switch tier {
	case RefundFull:
		return priceCents
	case RefundPartial:
		return priceCents * int64(p.PartialRefundPct) / 100
	}
	return 0
}
