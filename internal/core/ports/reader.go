package ports

import (
	"context"

	"card-terminal/internal/core/domain"
)

//go:generate mockgen -destination=mocks/mock_reader.go -package=mocks card-terminal/internal/core/ports ReaderSDK,ReaderEventObserver

// ReaderSDK is the card reader SDK: discovery transport, pairing and the
// card-present payment exchange. Blocking calls honor ctx; canceling the ctx
// of Discover or CollectPaymentMethod is the SDK cancel primitive and makes
// the call return domain.ErrCanceled (or ctx.Err()).
type ReaderSDK interface {
	// SetTokenProvider registers the source of connection tokens. Must be
	// called before any other method.
	SetTokenProvider(provider ConnectionTokenProvider)

	ListLocations(ctx context.Context) ([]domain.Location, error)

	// Discover scans until ctx is canceled or the scan fails. onUpdate
	// receives the full list of visible readers on every change.
	Discover(ctx context.Context, cfg domain.DiscoveryConfig, onUpdate func([]domain.Device)) error

	// Connect pairs with device and returns its refreshed description.
	// Push events for the session go to observer until Disconnect.
	Connect(ctx context.Context, device domain.Device, locationID string, observer ReaderEventObserver) (domain.Device, error)
	Disconnect(ctx context.Context) error
	InstallAvailableUpdate(ctx context.Context) error

	CreatePaymentIntent(ctx context.Context, amount domain.Amount) (*domain.PaymentIntent, error)
	CollectPaymentMethod(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error)
	// ProcessPayment confirms the intent. On failure the error may be a
	// *domain.ConfirmationError carrying the updated intent.
	ProcessPayment(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error)
}

// ReaderEventObserver receives reader push events for a connected session.
// Calls are independent of Connect/Disconnect results.
type ReaderEventObserver interface {
	OnDisplayMessage(message string)
	OnUpdateStarted(update domain.SoftwareUpdate)
	OnUpdateProgress(progress float64)
	OnUpdateFinished(err error)
	OnUnexpectedDisconnect(device domain.Device)
}

// ConnectionTokenProvider issues short-lived SDK connection tokens.
type ConnectionTokenProvider interface {
	FetchConnectionToken(ctx context.Context) (string, error)
}
