package domain

import "time"

// DeviceType identifies a reader model.
type DeviceType string

const (
	DeviceTypeChipper2X    DeviceType = "chipper_2x"
	DeviceTypeWisePad3     DeviceType = "wisepad_3"
	DeviceTypeStripeM2     DeviceType = "stripe_m2"
	DeviceTypeWisePosE     DeviceType = "bbpos_wisepos_e"
	DeviceTypeVerifoneP400 DeviceType = "verifone_P400"
	DeviceTypeStripeS700   DeviceType = "stripe_s700"
)

// UsesBluetooth reports whether the reader pairs over Bluetooth.
func (t DeviceType) UsesBluetooth() bool {
	switch t {
	case DeviceTypeChipper2X, DeviceTypeWisePad3, DeviceTypeStripeM2:
		return true
	default:
		return false
	}
}

// SoftwareUpdate describes firmware pending installation on a reader.
type SoftwareUpdate struct {
	Version    string    `json:"version"`
	RequiredAt time.Time `json:"required_at"`
}

// Device is a card reader as reported by the SDK. Never mutated once
// referenced by a State; a refreshed reader is a new value.
type Device struct {
	ID              string          `json:"id,omitempty"`
	SerialNumber    string          `json:"serial_number"`
	Label           string          `json:"label,omitempty"`
	DeviceType      DeviceType      `json:"device_type"`
	LocationID      string          `json:"location_id,omitempty"`
	BatteryLevel    float64         `json:"battery_level"` // 0..1, -1 when unknown
	SoftwareVersion string          `json:"software_version,omitempty"`
	AvailableUpdate *SoftwareUpdate `json:"available_update,omitempty"`
}

// RequiresImmediateUpdate reports whether a pending update is past its
// required-by date.
func (d Device) RequiresImmediateUpdate(now time.Time) bool {
	return d.AvailableUpdate != nil && d.AvailableUpdate.RequiredAt.Before(now)
}

// Location is a merchant location that scopes discovery and connection.
type Location struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// IsZero reports whether no location is set.
func (l Location) IsZero() bool { return l.ID == "" }

// DiscoveryMethod selects the SDK scanning transport.
type DiscoveryMethod string

const (
	DiscoveryBluetoothScan DiscoveryMethod = "bluetooth_scan"
	DiscoveryInternet      DiscoveryMethod = "internet"
)

// DiscoveryConfig scopes a scan.
type DiscoveryConfig struct {
	Method     DiscoveryMethod
	LocationID string
	Simulated  bool
}
