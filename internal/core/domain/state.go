package domain

import "fmt"

// StateKind names a terminal lifecycle state.
type StateKind string

const (
	StateNoDevice              StateKind = "no_device"
	StateDisconnected          StateKind = "disconnected"
	StateSearchingBySerial     StateKind = "searching_by_serial"
	StateDiscoveringAtLocation StateKind = "discovering_at_location"
	StateConnecting            StateKind = "connecting"
	StateConnected             StateKind = "connected"
	StateDisconnectingForget   StateKind = "disconnecting_forget"
	StateAutomaticUpdate       StateKind = "automatic_update"
	StateUserInitiatedUpdate   StateKind = "user_initiated_update"
	StateCharging              StateKind = "charging"
)

// State is an immutable snapshot of the terminal lifecycle. Which fields
// are set depends on Kind:
//
//	Disconnected, SearchingBySerial: SerialNumber
//	DiscoveringAtLocation:           Location
//	Connecting, AutomaticUpdate:     Device, Location (optional)
//	Connected, DisconnectingForget,
//	UserInitiatedUpdate:             Device
//	Charging:                        Device, Amount
type State struct {
	Kind         StateKind `json:"kind"`
	SerialNumber string    `json:"serial_number,omitempty"`
	Location     Location  `json:"location"`
	Device       Device    `json:"device"`
	Amount       Amount    `json:"amount"`
}

func NoDevice() State {
	return State{Kind: StateNoDevice}
}

func Disconnected(serial string) State {
	return State{Kind: StateDisconnected, SerialNumber: serial}
}

func SearchingBySerial(serial string) State {
	return State{Kind: StateSearchingBySerial, SerialNumber: serial}
}

func DiscoveringAtLocation(l Location) State {
	return State{Kind: StateDiscoveringAtLocation, Location: l}
}

// Connecting takes a zero Location when the device was found by serial.
func Connecting(l Location, d Device) State {
	return State{Kind: StateConnecting, Location: l, Device: d}
}

func Connected(d Device) State {
	return State{Kind: StateConnected, Device: d}
}

func DisconnectingForget(d Device) State {
	return State{Kind: StateDisconnectingForget, Device: d}
}

func AutomaticUpdate(l Location, d Device) State {
	return State{Kind: StateAutomaticUpdate, Location: l, Device: d}
}

func UserInitiatedUpdate(d Device) State {
	return State{Kind: StateUserInitiatedUpdate, Device: d}
}

func Charging(d Device, a Amount) State {
	return State{Kind: StateCharging, Device: d, Amount: a}
}

// InitialState picks the startup state from the remembered reader serial.
func InitialState(rememberedSerial string) State {
	if rememberedSerial == "" {
		return NoDevice()
	}
	return Disconnected(rememberedSerial)
}

func (s State) String() string {
	switch s.Kind {
	case StateDisconnected, StateSearchingBySerial:
		return fmt.Sprintf("%s(%s)", s.Kind, s.SerialNumber)
	case StateDiscoveringAtLocation:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Location.ID)
	case StateConnecting, StateAutomaticUpdate:
		loc := s.Location.ID
		if loc == "" {
			loc = "nil"
		}
		return fmt.Sprintf("%s(%s, %s)", s.Kind, loc, s.Device.SerialNumber)
	case StateCharging:
		return fmt.Sprintf("%s(%s, %s)", s.Kind, s.Device.SerialNumber, s.Amount)
	case StateConnected, StateDisconnectingForget, StateUserInitiatedUpdate:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Device.SerialNumber)
	default:
		return string(s.Kind)
	}
}

// NextState is the transition function. It returns false when sig is not
// valid in s; callers must leave the current state untouched in that case.
func NextState(s State, sig Signal) (State, bool) {
	switch s.Kind {
	case StateNoDevice:
		if sig.Kind == SignalSelectLocation {
			return DiscoveringAtLocation(sig.Location), true
		}

	case StateDisconnected:
		if sig.Kind == SignalReconnect {
			return SearchingBySerial(s.SerialNumber), true
		}

	case StateDiscoveringAtLocation:
		switch sig.Kind {
		case SignalSelectDevice:
			return Connecting(s.Location, sig.Device), true
		case SignalSelectLocation:
			return DiscoveringAtLocation(sig.Location), true
		case SignalCanceled, SignalFailure:
			return NoDevice(), true
		}

	case StateSearchingBySerial:
		switch sig.Kind {
		case SignalDeviceFound:
			return Connecting(Location{}, sig.Device), true
		case SignalCanceled, SignalFailure:
			return NoDevice(), true
		}

	case StateConnecting:
		switch sig.Kind {
		case SignalConnected:
			return Connected(s.Device), true
		case SignalBeginUpdate:
			return AutomaticUpdate(s.Location, s.Device), true
		case SignalFailure:
			return NoDevice(), true
		}

	case StateConnected:
		switch sig.Kind {
		case SignalConnected:
			// The SDK can report the end of a mandatory update before the
			// connect completion; the late completion is a no-op.
			return s, true
		case SignalBeginUpdate:
			return UserInitiatedUpdate(s.Device), true
		case SignalCharge:
			return Charging(s.Device, sig.Amount), true
		case SignalDisconnectedUnexpectedly:
			return Disconnected(s.Device.SerialNumber), true
		case SignalForgetReader:
			return DisconnectingForget(s.Device), true
		}

	case StateDisconnectingForget:
		switch sig.Kind {
		case SignalDisconnected, SignalFailure:
			return NoDevice(), true
		}

	case StateAutomaticUpdate, StateUserInitiatedUpdate:
		if sig.Kind == SignalEndUpdate {
			return Connected(s.Device), true
		}

	case StateCharging:
		switch sig.Kind {
		case SignalEndCharging, SignalCanceled, SignalFailure:
			return Connected(s.Device), true
		case SignalDisconnectedUnexpectedly:
			return Disconnected(s.Device.SerialNumber), true
		}
	}

	return State{}, false
}
