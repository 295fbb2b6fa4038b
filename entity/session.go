// Package entity defines data models for the checkout payment service.
package entity

import "time"

// PaymentOutcome is the terminal classification of a payment attempt.
type PaymentOutcome string

const (
	OutcomePending   PaymentOutcome = "pending"
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
)

// PaymentSessionSnapshot is the persisted state of one payment attempt.
// It exists to survive a page reload during the redirect round trip:
// a controller remounted for a completed order restores the Succeeded
// state from here instead of re-issuing the redirect.
type PaymentSessionSnapshot struct {
	OrderId string         `json:"order_id" bson:"order_id"`
	AliasId string         `json:"alias_id" bson:"alias_id"`
	ShaSign string         `json:"sha_sign" bson:"sha_sign"`
	Method  string         `json:"method" bson:"method"`
	Outcome PaymentOutcome `json:"outcome" bson:"outcome"`
	SavedAt time.Time      `json:"saved_at" bson:"saved_at"`
}

// Done reports whether the snapshot records a completed payment.
func (s *PaymentSessionSnapshot) Done() bool {
	return s != nil && s.Outcome == OutcomeSucceeded
}
