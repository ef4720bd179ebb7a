package handler

import (
	"card-terminal/internal/adapter/http/dto"
	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/response"

	"github.com/gin-gonic/gin"
)

// TerminalHandler exposes the reader lifecycle and charges.
type TerminalHandler struct {
	terminal ports.TerminalService
}

// NewTerminalHandler creates a new TerminalHandler.
func NewTerminalHandler(terminal ports.TerminalService) *TerminalHandler {
	return &TerminalHandler{terminal: terminal}
}

// GetState handles GET /api/v1/terminal/state.
func (h *TerminalHandler) GetState(c *gin.Context) {
	response.OK(c, dto.NewStateResponse(h.terminal.State()))
}

// ListLocations handles GET /api/v1/terminal/locations.
func (h *TerminalHandler) ListLocations(c *gin.Context) {
	locations, err := h.terminal.Locations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if locations == nil {
		locations = []domain.Location{}
	}
	response.OK(c, dto.LocationListResponse{Locations: locations})
}

// SelectLocation handles POST /api/v1/terminal/location.
func (h *TerminalHandler) SelectLocation(c *gin.Context) {
	var req dto.SelectLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	h.accepted(c, h.terminal.SelectLocation(domain.Location{ID: req.ID, DisplayName: req.DisplayName}))
}

// ListDevices handles GET /api/v1/terminal/devices.
func (h *TerminalHandler) ListDevices(c *gin.Context) {
	devices := h.terminal.Devices()
	if devices == nil {
		devices = []domain.Device{}
	}
	response.OK(c, dto.DeviceListResponse{Devices: devices})
}

// SelectDevice handles POST /api/v1/terminal/device.
func (h *TerminalHandler) SelectDevice(c *gin.Context) {
	var req dto.SelectDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	h.accepted(c, h.terminal.SelectDevice(req.SerialNumber))
}

// Reconnect handles POST /api/v1/terminal/reconnect.
func (h *TerminalHandler) Reconnect(c *gin.Context) {
	h.accepted(c, h.terminal.Reconnect())
}

// Forget handles POST /api/v1/terminal/forget.
func (h *TerminalHandler) Forget(c *gin.Context) {
	h.accepted(c, h.terminal.Forget())
}

// InstallUpdate handles POST /api/v1/terminal/update.
func (h *TerminalHandler) InstallUpdate(c *gin.Context) {
	h.accepted(c, h.terminal.InstallUpdate(c.Request.Context()))
}

// Cancel handles POST /api/v1/terminal/cancel.
func (h *TerminalHandler) Cancel(c *gin.Context) {
	h.accepted(c, h.terminal.Cancel(c.Request.Context()))
}

// Charge handles POST /api/v1/terminal/charges. The request blocks until
// the payment resolves; cancellation and failure are reported in the body.
func (h *TerminalHandler) Charge(c *gin.Context) {
	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := domain.ParseAmount(req.Amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.terminal.Charge(c.Request.Context(), amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewChargeResponse(result))
}

func (h *TerminalHandler) accepted(c *gin.Context, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.AcceptedResponse{Accepted: true, State: h.terminal.State().String()})
}
