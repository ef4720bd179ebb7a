package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"card-terminal/internal/adapter/http/middleware"
	"card-terminal/internal/adapter/storage/memory"
	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/internal/core/ports/mocks"
	"card-terminal/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	counterReader = domain.Device{ID: "tmr_1", SerialNumber: "WPC-1", DeviceType: domain.DeviceTypeWisePad3, LocationID: "tml_1"}
	frontDesk     = domain.Location{ID: "tml_1", DisplayName: "Front desk"}
)

func setupRouter(t *testing.T, mutate func(*RouterDeps)) (*gin.Engine, *mocks.MockTerminalService) {
	ctrl := gomock.NewController(t)
	terminal := mocks.NewMockTerminalService(ctrl)
	deps := RouterDeps{Terminal: terminal, Logger: zerolog.Nop()}
	if mutate != nil {
		mutate(&deps)
	}
	router := SetupRouter(deps)
	gin.SetMode(gin.TestMode)
	return router, terminal
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// ==================== State Tests ====================

func TestGetState(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().State().Return(domain.Connected(counterReader))

	w := doJSON(router, http.MethodGet, "/api/v1/terminal/state", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "connected", data["kind"])
	device := data["device"].(map[string]interface{})
	assert.Equal(t, "WPC-1", device["serial_number"])
	assert.NotContains(t, data, "location")
}

func TestListLocations(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().Locations(gomock.Any()).Return([]domain.Location{frontDesk}, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/terminal/locations", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	locations := decodeData(t, w)["locations"].([]interface{})
	require.Len(t, locations, 1)
	assert.Equal(t, "tml_1", locations[0].(map[string]interface{})["id"])
}

func TestListLocations_ReaderError(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().Locations(gomock.Any()).Return(nil, apperror.ErrReaderFailure(errors.New("offline")))

	w := doJSON(router, http.MethodGet, "/api/v1/terminal/locations", nil)

	assert.Equal(t, "DEV_004", errorCode(t, w))
}

func TestListDevices_Empty(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().Devices().Return(nil)

	w := doJSON(router, http.MethodGet, "/api/v1/terminal/devices", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decodeData(t, w)["devices"])
}

// ==================== Lifecycle Tests ====================

func TestSelectLocation(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().SelectLocation(frontDesk).Return(nil)
	terminal.EXPECT().State().Return(domain.DiscoveringAtLocation(frontDesk))

	w := doJSON(router, http.MethodPost, "/api/v1/terminal/location", map[string]string{
		"id":           "tml_1",
		"display_name": " Front desk ",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["accepted"])
	assert.Equal(t, "discovering_at_location(tml_1)", data["state"])
}

func TestSelectLocation_ValidationError(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/terminal/location", map[string]string{"id": "tml 1; DROP"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", errorCode(t, w))
}

func TestSelectDevice(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "accepted", wantStatus: http.StatusAccepted},
		{name: "unknown device", err: apperror.ErrUnknownDevice("WPC-1"), wantStatus: http.StatusNotFound, wantCode: "DEV_007"},
		{name: "stopped", err: apperror.ErrMachineStopped(), wantStatus: apperror.ErrMachineStopped().HTTPStatus, wantCode: "TRM_003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, terminal := setupRouter(t, nil)
			terminal.EXPECT().SelectDevice("WPC-1").Return(tt.err)
			if tt.err == nil {
				terminal.EXPECT().State().Return(domain.Connecting(frontDesk, counterReader))
			}

			w := doJSON(router, http.MethodPost, "/api/v1/terminal/device", map[string]string{"serial_number": "WPC-1"})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
			}
		})
	}
}

func TestLifecycleCommands(t *testing.T) {
	tests := []struct {
		path   string
		expect func(m *mocks.MockTerminalService)
	}{
		{"/api/v1/terminal/reconnect", func(m *mocks.MockTerminalService) { m.EXPECT().Reconnect().Return(nil) }},
		{"/api/v1/terminal/forget", func(m *mocks.MockTerminalService) { m.EXPECT().Forget().Return(nil) }},
		{"/api/v1/terminal/update", func(m *mocks.MockTerminalService) { m.EXPECT().InstallUpdate(gomock.Any()).Return(nil) }},
		{"/api/v1/terminal/cancel", func(m *mocks.MockTerminalService) { m.EXPECT().Cancel(gomock.Any()).Return(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			router, terminal := setupRouter(t, nil)
			tt.expect(terminal)
			terminal.EXPECT().State().Return(domain.NoDevice())

			w := doJSON(router, http.MethodPost, tt.path, nil)

			assert.Equal(t, http.StatusAccepted, w.Code)
		})
	}
}

func TestInstallUpdate_NotConnected(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().InstallUpdate(gomock.Any()).Return(apperror.ErrNotConnected())

	w := doJSON(router, http.MethodPost, "/api/v1/terminal/update", nil)

	assert.Equal(t, "DEV_006", errorCode(t, w))
}

// ==================== Charge Tests ====================

func TestCharge_Success(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, amount domain.Amount) (domain.PaymentResult, error) {
			assert.Equal(t, uint64(1050), amount.MinorUnits())
			assert.Equal(t, "eur", amount.Currency())
			return domain.PaymentSucceeded(domain.Receipt{PaymentIntentID: "pi_1", Date: time.Now()}), nil
		})

	w := doJSON(router, http.MethodPost, "/api/v1/terminal/charges", map[string]string{"amount": "10.50", "currency": "EUR"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "success", data["outcome"])
	assert.Equal(t, "pi_1", data["receipt"].(map[string]interface{})["payment_intent_id"])
}

func TestCharge_FailureReportedInBody(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(domain.PaymentFailed(apperror.ErrNotConnected()), nil)

	w := doJSON(router, http.MethodPost, "/api/v1/terminal/charges", map[string]string{"amount": "1", "currency": "usd"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "failure", data["outcome"])
	assert.Equal(t, "DEV_006", data["error_code"])
}

func TestCharge_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]string
		wantCode string
	}{
		{"missing amount", map[string]string{"currency": "usd"}, "REQ_001"},
		{"negative amount", map[string]string{"amount": "-5", "currency": "usd"}, "REQ_001"},
		{"too precise", map[string]string{"amount": "1.001", "currency": "usd"}, "PAY_002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, nil)

			w := doJSON(router, http.MethodPost, "/api/v1/terminal/charges", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestCharge_InProgress(t *testing.T) {
	router, terminal := setupRouter(t, nil)
	terminal.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(domain.PaymentResult{}, apperror.ErrChargeInProgress())

	w := doJSON(router, http.MethodPost, "/api/v1/terminal/charges", map[string]string{"amount": "1", "currency": "usd"})

	assert.Equal(t, "TRM_004", errorCode(t, w))
}

// ==================== Router Tests ====================

func TestRouter_RequiresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenService(ctrl)
	router, terminal := setupRouter(t, func(d *RouterDeps) { d.TokenSvc = tokens })

	w := doJSON(router, http.MethodGet, "/api/v1/terminal/state", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tokens.EXPECT().Validate("tok").Return(&ports.TokenClaims{OperatorID: "op_alice"}, nil)
	terminal.EXPECT().State().Return(domain.NoDevice())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/terminal/state", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimitsCharges(t *testing.T) {
	router, terminal := setupRouter(t, func(d *RouterDeps) {
		d.RateLimitStore = memory.NewRateLimitStore()
		d.RateLimits = map[string]middleware.RateLimitRule{"charges": {Limit: 1, Window: time.Hour}}
	})
	terminal.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(domain.PaymentCanceled(), nil)
	terminal.EXPECT().State().Return(domain.NoDevice()).Times(3)

	body := map[string]string{"amount": "1", "currency": "usd"}
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/api/v1/terminal/charges", body).Code)
	w := doJSON(router, http.MethodPost, "/api/v1/terminal/charges", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_001", errorCode(t, w))

	// Groups missing from the rules are not limited.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/api/v1/terminal/state", nil).Code)
	}
}

// ==================== Health Tests ====================

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(context.Context) error { return s.err }
func (s stubChecker) Name() string               { return s.name }

func TestHealthCheck(t *testing.T) {
	router, terminal := setupRouter(t, func(d *RouterDeps) {
		d.HealthCheckers = []ports.HealthChecker{
			stubChecker{name: "redis"},
			stubChecker{name: "postgresql", err: errors.New("connection refused")},
		}
	})
	terminal.EXPECT().State().Return(domain.Disconnected("WPC-1"))

	w := doJSON(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "disconnected(WPC-1)", resp["terminal"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "healthy", deps["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "unhealthy", deps["postgresql"].(map[string]interface{})["status"])
}

func TestSwaggerSpec(t *testing.T) {
	router, _ := setupRouter(t, nil)

	SetSwaggerSpec(nil)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/swagger/spec", nil).Code)

	SetSwaggerSpec([]byte("openapi: 3.0.3\n"))
	t.Cleanup(func() { SetSwaggerSpec(nil) })
	w := doJSON(router, http.MethodGet, "/swagger/spec", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "openapi: 3.0.3\n", w.Body.String())
}
