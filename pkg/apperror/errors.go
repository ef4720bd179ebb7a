package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error carrying a stable code and an HTTP mapping.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Is reports whether any AppError in err's chain carries code.
func Is(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- State machine (TRM) ----

func ErrIllegalTransition(state, signal string) *AppError {
	return New("TRM_001", fmt.Sprintf("Signal %s is not valid in state %s", signal, state), http.StatusConflict)
}

func ErrNotCancelable(state string) *AppError {
	return New("TRM_002", fmt.Sprintf("State %s cannot be canceled", state), http.StatusConflict)
}

func ErrMachineStopped() *AppError {
	return New("TRM_003", "Terminal is not running", http.StatusServiceUnavailable)
}

func ErrChargeInProgress() *AppError {
	return New("TRM_004", "A charge is already in progress", http.StatusConflict)
}

// ---- Reader, discovery and connection (DEV) ----

func ErrAlreadyDiscovering() *AppError {
	return New("DEV_001", "Discovery is already in progress", http.StatusConflict)
}

func ErrDeviceNotFound(serial string) *AppError {
	return New("DEV_002", fmt.Sprintf("Reader %s not found", serial), http.StatusNotFound)
}

func ErrNoLocation() *AppError {
	return New("DEV_003", "No location available for the reader", http.StatusUnprocessableEntity)
}

func ErrReaderFailure(err error) *AppError {
	return Wrap("DEV_004", "Reader operation failed", http.StatusBadGateway, err)
}

func ErrUnsupportedDevice(deviceType string) *AppError {
	return New("DEV_005", fmt.Sprintf("Reader type %s is not supported", deviceType), http.StatusUnprocessableEntity)
}

func ErrNotConnected() *AppError {
	return New("DEV_006", "No reader is connected", http.StatusConflict)
}

func ErrUnknownDevice(serial string) *AppError {
	return New("DEV_007", fmt.Sprintf("Reader %s was not discovered", serial), http.StatusNotFound)
}

// ---- Payment (PAY) ----

func ErrInvalidAmount(reason string) *AppError {
	return New("PAY_002", "Invalid amount: "+reason, http.StatusBadRequest)
}

func ErrPaymentCanceled() *AppError {
	return New("PAY_003", "Payment was canceled", http.StatusConflict)
}

func ErrConfirmationFailed(err error) *AppError {
	return Wrap("PAY_004", "Payment confirmation failed", http.StatusPaymentRequired, err)
}

func ErrCollectFailed(err error) *AppError {
	return Wrap("PAY_005", "Collecting the payment method failed", http.StatusPaymentRequired, err)
}

func ErrIntentCreation(err error) *AppError {
	return Wrap("PAY_006", "Creating the payment intent failed", http.StatusBadGateway, err)
}

func ErrPaymentNotCancelable() *AppError {
	return New("PAY_007", "Payment is being confirmed and cannot be canceled", http.StatusConflict)
}

func ErrCaptureFailed(err error) *AppError {
	return Wrap("PAY_008", "Capturing the payment failed", http.StatusBadGateway, err)
}

func ErrProtocolViolation(message string) *AppError {
	return New("PAY_010", "Protocol violation: "+message, http.StatusBadGateway)
}

// ---- Backend (BKD) ----

func ErrBackendUnavailable(err error) *AppError {
	return Wrap("BKD_001", "Backend unavailable", http.StatusBadGateway, err)
}

func ErrBackendRejected(message string) *AppError {
	return New("BKD_002", "Backend rejected the request: "+message, http.StatusBadGateway)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorageError(err error) *AppError {
	return Wrap("SYS_002", "Storage failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
