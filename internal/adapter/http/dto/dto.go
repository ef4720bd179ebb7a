package dto

import (
	"card-terminal/internal/core/domain"
	"card-terminal/pkg/apperror"
)

// SelectLocationRequest is the request body for choosing a location.
type SelectLocationRequest struct {
	ID          string `json:"id" binding:"required,safe_id,max=64"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

// SelectDeviceRequest is the request body for choosing a discovered reader.
type SelectDeviceRequest struct {
	SerialNumber string `json:"serial_number" binding:"required,safe_id,max=64"`
}

// ChargeRequest is the request body for a card-present charge.
// Amount is a decimal string in major units, e.g. "10.50".
type ChargeRequest struct {
	Amount   string `json:"amount" binding:"required,decimal_amount"`
	Currency string `json:"currency" binding:"required,len=3,alpha"`
}

// StateResponse is the response body for the lifecycle state.
type StateResponse struct {
	Kind         string           `json:"kind"`
	Description  string           `json:"description"`
	SerialNumber string           `json:"serial_number,omitempty"`
	Location     *domain.Location `json:"location,omitempty"`
	Device       *domain.Device   `json:"device,omitempty"`
	Amount       *domain.Amount   `json:"amount,omitempty"`
}

// ChargeResponse is the response body for a resolved charge.
type ChargeResponse struct {
	Outcome   string          `json:"outcome"`
	Receipt   *domain.Receipt `json:"receipt,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// LocationListResponse wraps the merchant locations.
type LocationListResponse struct {
	Locations []domain.Location `json:"locations"`
}

// DeviceListResponse wraps the readers found by the current scan.
type DeviceListResponse struct {
	Devices []domain.Device `json:"devices"`
}

// AcceptedResponse acknowledges a queued lifecycle request.
type AcceptedResponse struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
}

// NewStateResponse fills only the fields that belong to the state's kind.
func NewStateResponse(s domain.State) StateResponse {
	resp := StateResponse{Kind: string(s.Kind), Description: s.String()}
	switch s.Kind {
	case domain.StateDisconnected, domain.StateSearchingBySerial:
		resp.SerialNumber = s.SerialNumber
	case domain.StateDiscoveringAtLocation:
		resp.Location = &s.Location
	case domain.StateConnecting, domain.StateAutomaticUpdate:
		resp.Location = &s.Location
		resp.Device = &s.Device
	case domain.StateConnected, domain.StateDisconnectingForget, domain.StateUserInitiatedUpdate:
		resp.Device = &s.Device
	case domain.StateCharging:
		resp.Device = &s.Device
		resp.Amount = &s.Amount
	}
	return resp
}

// NewChargeResponse flattens a payment result.
func NewChargeResponse(r domain.PaymentResult) ChargeResponse {
	resp := ChargeResponse{Outcome: string(r.Outcome), Receipt: r.Receipt}
	if r.Err != nil {
		resp.ErrorCode = apperror.CodeOf(r.Err)
		resp.Message = r.Err.Error()
	}
	return resp
}
