package stripeapi

import (
	"errors"
	"fmt"

	"card-terminal/internal/core/domain"

	"github.com/stripe/stripe-go/v74"
)

const readerOnline = "online"

var deviceTypes = map[string]domain.DeviceType{
	"bbpos_chipper2x":     domain.DeviceTypeChipper2X,
	"bbpos_wisepad3":      domain.DeviceTypeWisePad3,
	"bbpos_wisepos_e":     domain.DeviceTypeWisePosE,
	"simulated_wisepos_e": domain.DeviceTypeWisePosE,
	"stripe_m2":           domain.DeviceTypeStripeM2,
	"stripe_s700":         domain.DeviceTypeStripeS700,
	"verifone_P400":       domain.DeviceTypeVerifoneP400,
}

func toLocation(l *stripe.TerminalLocation) domain.Location {
	return domain.Location{ID: l.ID, DisplayName: l.DisplayName}
}

// toDevice maps a reader object. The API does not report battery levels.
func toDevice(r *stripe.TerminalReader) domain.Device {
	d := domain.Device{
		ID:              r.ID,
		SerialNumber:    r.SerialNumber,
		Label:           r.Label,
		DeviceType:      toDeviceType(string(r.DeviceType)),
		BatteryLevel:    -1,
		SoftwareVersion: r.DeviceSwVersion,
	}
	if r.Location != nil {
		d.LocationID = r.Location.ID
	}
	return d
}

func toDeviceType(t string) domain.DeviceType {
	if dt, ok := deviceTypes[t]; ok {
		return dt
	}
	return domain.DeviceType(t)
}

func toIntent(pi *stripe.PaymentIntent) (*domain.PaymentIntent, error) {
	if pi.Amount < 0 {
		return nil, fmt.Errorf("payment intent %s: negative amount %d", pi.ID, pi.Amount)
	}
	amount, err := domain.AmountFromMinorUnits(uint64(pi.Amount), string(pi.Currency))
	if err != nil {
		return nil, fmt.Errorf("payment intent %s: %w", pi.ID, err)
	}

	intent := &domain.PaymentIntent{
		ID:     pi.ID,
		Amount: amount,
		Status: domain.PaymentIntentStatus(pi.Status),
	}
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		intent.Charges = []domain.Charge{toCharge(pi.LatestCharge, amount)}
	}
	return intent, nil
}

// toCharge maps a charge. An unexpanded charge carries only its ID and is
// reported as pending.
func toCharge(ch *stripe.Charge, intentAmount domain.Amount) domain.Charge {
	c := domain.Charge{
		ID:     ch.ID,
		Amount: intentAmount,
		Status: domain.ChargePending,
	}
	switch string(ch.Status) {
	case string(domain.ChargeSucceeded):
		c.Status = domain.ChargeSucceeded
	case string(domain.ChargeFailed):
		c.Status = domain.ChargeFailed
	}
	if ch.Amount > 0 && ch.Currency != "" {
		if amount, err := domain.AmountFromMinorUnits(uint64(ch.Amount), string(ch.Currency)); err == nil {
			c.Amount = amount
		}
	}
	if pmd := ch.PaymentMethodDetails; pmd != nil && pmd.CardPresent != nil {
		c.Card = &domain.CardDetails{
			Brand: string(pmd.CardPresent.Brand),
			Last4: pmd.CardPresent.Last4,
		}
	}
	return c
}

// confirmationError converts an API error into a ConfirmationError that
// carries the intent embedded in the error body, when there is one.
func confirmationError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.PaymentIntent != nil {
		if intent, mapErr := toIntent(stripeErr.PaymentIntent); mapErr == nil {
			return &domain.ConfirmationError{Err: err, Intent: intent}
		}
	}
	return &domain.ConfirmationError{Err: err}
}

// actionError describes a failed reader action.
func actionError(a *stripe.TerminalReaderAction) error {
	if a.FailureMessage != "" {
		return fmt.Errorf("reader action failed: %s (%s)", a.FailureMessage, a.FailureCode)
	}
	return fmt.Errorf("reader action failed: %s", a.FailureCode)
}
