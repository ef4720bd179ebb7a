package domain

import (
	"errors"
	"fmt"
	"time"
)

// PaymentIntentStatus mirrors the processor-side status of an intent.
type PaymentIntentStatus string

const (
	IntentRequiresPaymentMethod PaymentIntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  PaymentIntentStatus = "requires_confirmation"
	IntentRequiresAction        PaymentIntentStatus = "requires_action"
	IntentProcessing            PaymentIntentStatus = "processing"
	IntentRequiresCapture       PaymentIntentStatus = "requires_capture"
	IntentSucceeded             PaymentIntentStatus = "succeeded"
	IntentCanceled              PaymentIntentStatus = "canceled"
)

// ChargeStatus is the settlement status of one charge.
type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargePending   ChargeStatus = "pending"
	ChargeFailed    ChargeStatus = "failed"
)

// CardDetails is the card-present payment method summary shown on receipts.
type CardDetails struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// Charge is one authorization attempt inside an intent.
type Charge struct {
	ID     string       `json:"id"`
	Amount Amount       `json:"amount"`
	Status ChargeStatus `json:"status"`
	Card   *CardDetails `json:"card,omitempty"`
}

// PaymentIntent is the processor record of one attempted payment.
type PaymentIntent struct {
	ID      string              `json:"id"`
	Amount  Amount              `json:"amount"`
	Status  PaymentIntentStatus `json:"status"`
	Charges []Charge            `json:"charges,omitempty"`
}

// SettledCharges returns the charges whose authorization succeeded.
func (pi *PaymentIntent) SettledCharges() []Charge {
	var settled []Charge
	for _, c := range pi.Charges {
		if c.Status == ChargeSucceeded {
			settled = append(settled, c)
		}
	}
	return settled
}

// ConfirmationError is returned by ProcessPayment. Intent, when set, is the
// processor's updated view of the intent after the failed attempt.
type ConfirmationError struct {
	Err    error
	Intent *PaymentIntent
}

func (e *ConfirmationError) Error() string {
	if e.Intent != nil {
		return fmt.Sprintf("confirm payment intent %s (status %s): %v", e.Intent.ID, e.Intent.Status, e.Err)
	}
	return fmt.Sprintf("confirm payment intent: %v", e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// ErrCanceled is returned by SDK operations canceled through their context
// or a cancel primitive.
var ErrCanceled = errors.New("operation canceled")

// ReceiptCharge is one settled charge on a receipt.
type ReceiptCharge struct {
	ID     string       `json:"id"`
	Amount Amount       `json:"amount"`
	Card   *CardDetails `json:"card,omitempty"`
}

// Receipt summarizes a captured payment.
type Receipt struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	Date            time.Time       `json:"date"`
	Charges         []ReceiptCharge `json:"charges"`
}

// PaymentOutcome classifies a PaymentResult.
type PaymentOutcome string

const (
	OutcomeSuccess      PaymentOutcome = "success"
	OutcomeCancellation PaymentOutcome = "cancellation"
	OutcomeFailure      PaymentOutcome = "failure"
)

// PaymentResult is the terminal outcome of exactly one charge.
type PaymentResult struct {
	Outcome PaymentOutcome
	Receipt *Receipt
	Err     error
}

func PaymentSucceeded(r Receipt) PaymentResult {
	return PaymentResult{Outcome: OutcomeSuccess, Receipt: &r}
}

func PaymentCanceled() PaymentResult {
	return PaymentResult{Outcome: OutcomeCancellation}
}

func PaymentFailed(err error) PaymentResult {
	return PaymentResult{Outcome: OutcomeFailure, Err: err}
}

func (r PaymentResult) String() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return "success(" + r.Receipt.PaymentIntentID + ")"
	case OutcomeFailure:
		return fmt.Sprintf("failure(%v)", r.Err)
	default:
		return string(r.Outcome)
	}
}
