package domain

import "fmt"

// SignalKind names an event that drives the terminal state machine.
type SignalKind string

const (
	SignalSelectLocation           SignalKind = "select_location"
	SignalSelectDevice             SignalKind = "select_device"
	SignalReconnect                SignalKind = "reconnect"
	SignalDeviceFound              SignalKind = "device_found"
	SignalConnected                SignalKind = "connected"
	SignalDisconnected             SignalKind = "disconnected"
	SignalDisconnectedUnexpectedly SignalKind = "disconnected_unexpectedly"
	SignalForgetReader             SignalKind = "forget_reader"
	SignalBeginUpdate              SignalKind = "begin_update"
	SignalEndUpdate                SignalKind = "end_update"
	SignalCharge                   SignalKind = "charge"
	SignalEndCharging              SignalKind = "end_charging"
	SignalCanceled                 SignalKind = "canceled"
	SignalFailure                  SignalKind = "failure"
)

// Signal is one event plus the payload its kind carries. Only the field
// matching Kind is meaningful.
type Signal struct {
	Kind     SignalKind
	Location Location      // select_location
	Device   Device        // select_device, device_found
	Amount   Amount        // charge
	Result   PaymentResult // end_charging
	Err      error         // failure
}

// NewSignal builds a signal that carries no payload.
func NewSignal(kind SignalKind) Signal {
	return Signal{Kind: kind}
}

func SelectLocation(l Location) Signal {
	return Signal{Kind: SignalSelectLocation, Location: l}
}

func SelectDevice(d Device) Signal {
	return Signal{Kind: SignalSelectDevice, Device: d}
}

func DeviceFound(d Device) Signal {
	return Signal{Kind: SignalDeviceFound, Device: d}
}

func ChargeSignal(a Amount) Signal {
	return Signal{Kind: SignalCharge, Amount: a}
}

func EndCharging(r PaymentResult) Signal {
	return Signal{Kind: SignalEndCharging, Result: r}
}

func Failure(err error) Signal {
	return Signal{Kind: SignalFailure, Err: err}
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalSelectLocation:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Location.ID)
	case SignalSelectDevice, SignalDeviceFound:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Device.SerialNumber)
	case SignalCharge:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Amount)
	case SignalEndCharging:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Result)
	case SignalFailure:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Err)
	default:
		return string(s.Kind)
	}
}
