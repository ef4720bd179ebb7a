package ports

import (
	"context"
	"time"

	"card-terminal/internal/core/domain"
)

//go:generate mockgen -destination=mocks/mock_services.go -package=mocks card-terminal/internal/core/ports TerminalService,TokenService

// TerminalService is the control surface of one terminal. Requests that
// start a reader operation return once the signal is queued; outcomes are
// observed through State.
type TerminalService interface {
	State() domain.State
	Locations(ctx context.Context) ([]domain.Location, error)
	Devices() []domain.Device
	SelectLocation(location domain.Location) error
	SelectDevice(serialNumber string) error
	Reconnect() error
	Forget() error
	InstallUpdate(ctx context.Context) error
	Cancel(ctx context.Context) error
	// Charge blocks until the payment resolves or ctx is done.
	Charge(ctx context.Context, amount domain.Amount) (domain.PaymentResult, error)
}

// TokenService handles operator JWT tokens for the control API.
type TokenService interface {
	Generate(operatorID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	OperatorID string
	TerminalID string
}
