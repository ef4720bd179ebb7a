package ports

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks card-terminal/internal/core/ports BackendAPI,DeviceStore,RateLimitStore

// BackendAPI is the merchant backend that owns the secret API key.
type BackendAPI interface {
	ConnectionTokenProvider
	CapturePaymentIntent(ctx context.Context, paymentIntentID string) error
}

// DeviceStore remembers the serial number of the last selected reader.
type DeviceStore interface {
	// Get returns "" when nothing is remembered.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, serialNumber string) error
	Clear(ctx context.Context) error
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// RateLimitStore counts requests in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}
