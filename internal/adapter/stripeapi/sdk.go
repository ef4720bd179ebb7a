// Package stripeapi drives smart readers through the Stripe Terminal API.
// Readers are discovered per location, payments are handed to the reader
// with process_payment_intent and the outcome is polled.
package stripeapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/terminal/connectiontoken"
	"github.com/stripe/stripe-go/v74/terminal/location"
	"github.com/stripe/stripe-go/v74/terminal/reader"
)

const (
	actionInProgress = "in_progress"
	actionSucceeded  = "succeeded"

	cancelActionTimeout = 10 * time.Second
	maxProcessingPolls  = 10
)

var (
	errNotConnected          = errors.New("no reader connected")
	errBluetoothUnsupported  = errors.New("bluetooth discovery needs the mobile reader SDK")
	errUpdatesManaged        = errors.New("smart readers install updates on their own")
	errPaymentMethodRequired = errors.New("payment method declined")
)

// API bundles the resource clients sharing one backend.
type API struct {
	readers   reader.Client
	locations location.Client
	intents   paymentintent.Client
	tokens    connectiontoken.Client
}

// NewAPI builds clients for key. An empty apiURL targets the production API.
func NewAPI(key, apiURL string, log zerolog.Logger) API {
	cfg := &stripe.BackendConfig{LeveledLogger: leveledLogger{log: logger.Component(log, "stripe")}}
	if apiURL != "" {
		cfg.URL = stripe.String(apiURL)
	}
	b := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)

	return API{
		readers:   reader.Client{B: b, Key: key},
		locations: location.Client{B: b, Key: key},
		intents:   paymentintent.Client{B: b, Key: key},
		tokens:    connectiontoken.Client{B: b, Key: key},
	}
}

// SDK implements ports.ReaderSDK for server-driven smart readers.
type SDK struct {
	api          API
	pollInterval time.Duration
	log          zerolog.Logger

	mu       sync.Mutex
	provider ports.ConnectionTokenProvider
	device   *domain.Device
	observer ports.ReaderEventObserver
}

var _ ports.ReaderSDK = (*SDK)(nil)

func NewSDK(api API, pollInterval time.Duration, log zerolog.Logger) *SDK {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &SDK{
		api:          api,
		pollInterval: pollInterval,
		log:          logger.Component(log, "stripe_reader"),
	}
}

// SetTokenProvider stores the provider. Server-driven calls authenticate
// with the secret key, so tokens are never fetched.
func (s *SDK) SetTokenProvider(provider ports.ConnectionTokenProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
}

func (s *SDK) ListLocations(ctx context.Context) ([]domain.Location, error) {
	params := &stripe.TerminalLocationListParams{}
	params.Context = ctx

	var locations []domain.Location
	it := s.api.locations.List(params)
	for it.Next() {
		locations = append(locations, toLocation(it.TerminalLocation()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// Discover polls the online readers of cfg.LocationID and reports the list
// whenever it changes.
func (s *SDK) Discover(ctx context.Context, cfg domain.DiscoveryConfig, onUpdate func([]domain.Device)) error {
	if cfg.Method != domain.DiscoveryInternet {
		return errBluetoothUnsupported
	}

	var last []domain.Device
	reported := false
	for {
		devices, err := s.onlineReaders(ctx, cfg.LocationID)
		if err != nil {
			if ctx.Err() != nil {
				return domain.ErrCanceled
			}
			return err
		}
		if !reported || !slices.Equal(last, devices) {
			onUpdate(devices)
			last, reported = devices, true
		}
		if err := s.sleep(ctx); err != nil {
			return domain.ErrCanceled
		}
	}
}

// Connect checks that the reader is online. There is no pairing step for
// server-driven readers.
func (s *SDK) Connect(ctx context.Context, device domain.Device, locationID string, observer ports.ReaderEventObserver) (domain.Device, error) {
	if device.DeviceType.UsesBluetooth() {
		return domain.Device{}, apperror.ErrUnsupportedDevice(string(device.DeviceType))
	}

	params := &stripe.TerminalReaderParams{}
	params.Context = ctx
	r, err := s.api.readers.Get(device.ID, params)
	if err != nil {
		return domain.Device{}, fmt.Errorf("get reader %s: %w", device.ID, err)
	}
	if r.Status != readerOnline {
		return domain.Device{}, fmt.Errorf("reader %s is %s", r.SerialNumber, r.Status)
	}

	connected := toDevice(r)
	if connected.LocationID == "" {
		connected.LocationID = locationID
	}

	s.mu.Lock()
	s.device = &connected
	s.observer = observer
	s.mu.Unlock()

	s.log.Info().Str("reader_id", connected.ID).Str("serial", connected.SerialNumber).Msg("reader connected")
	return connected, nil
}

func (s *SDK) Disconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = nil
	s.observer = nil
	return nil
}

func (s *SDK) InstallAvailableUpdate(context.Context) error {
	return errUpdatesManaged
}

// CreatePaymentIntent creates a card-present intent captured manually by the
// backend.
func (s *SDK) CreatePaymentIntent(ctx context.Context, amount domain.Amount) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(amount.MinorUnits())),
		Currency:           stripe.String(amount.Currency()),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card_present"}),
	}
	params.Context = ctx

	pi, err := s.api.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return toIntent(pi)
}

// CollectPaymentMethod hands the intent to the reader and waits for the
// action to finish. Canceling ctx cancels the reader action. A failed
// action still returns the intent so a decline can be retried.
func (s *SDK) CollectPaymentMethod(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	readerID, ok := s.readerID()
	if !ok {
		return nil, errNotConnected
	}

	params := &stripe.TerminalReaderProcessPaymentIntentParams{PaymentIntent: stripe.String(intent.ID)}
	params.Context = ctx
	if _, err := s.api.readers.ProcessPaymentIntent(readerID, params); err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrCanceled
		}
		return nil, fmt.Errorf("process payment intent on reader %s: %w", readerID, err)
	}
	s.display("Insert, tap or swipe card")

	action, err := s.awaitAction(ctx, readerID)
	if err != nil {
		if ctx.Err() != nil {
			s.cancelAction(readerID)
			s.display("Payment canceled")
			return nil, domain.ErrCanceled
		}
		return nil, err
	}
	if action != nil && string(action.Status) != actionSucceeded {
		s.log.Warn().Err(actionError(action)).Str("payment_intent_id", intent.ID).Msg("reader action failed")
	} else {
		s.display("Remove card")
	}
	return s.fetchIntent(ctx, intent.ID)
}

// ProcessPayment confirms the intent unless the reader already did.
func (s *SDK) ProcessPayment(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	current, err := s.fetchIntent(ctx, intent.ID)
	if err != nil {
		return nil, &domain.ConfirmationError{Err: err}
	}

	for polls := 0; current.Status == domain.IntentProcessing; polls++ {
		if polls == maxProcessingPolls {
			return nil, &domain.ConfirmationError{Err: fmt.Errorf("payment intent %s still processing", intent.ID)}
		}
		if err := s.sleep(ctx); err != nil {
			return nil, &domain.ConfirmationError{Err: err}
		}
		if current, err = s.fetchIntent(ctx, intent.ID); err != nil {
			return nil, &domain.ConfirmationError{Err: err}
		}
	}

	switch current.Status {
	case domain.IntentRequiresCapture, domain.IntentSucceeded:
		return current, nil
	case domain.IntentRequiresPaymentMethod:
		return nil, &domain.ConfirmationError{Err: errPaymentMethodRequired, Intent: current}
	case domain.IntentRequiresConfirmation:
		params := &stripe.PaymentIntentConfirmParams{}
		params.Context = ctx
		params.AddExpand("latest_charge")
		pi, err := s.api.intents.Confirm(intent.ID, params)
		if err != nil {
			return nil, confirmationError(err)
		}
		confirmed, err := toIntent(pi)
		if err != nil {
			return nil, &domain.ConfirmationError{Err: err}
		}
		return confirmed, nil
	default:
		return nil, &domain.ConfirmationError{
			Err:    fmt.Errorf("payment intent %s cannot be confirmed in status %s", intent.ID, current.Status),
			Intent: current,
		}
	}
}

func (s *SDK) onlineReaders(ctx context.Context, locationID string) ([]domain.Device, error) {
	params := &stripe.TerminalReaderListParams{}
	params.Context = ctx
	if locationID != "" {
		params.Location = stripe.String(locationID)
	}

	var devices []domain.Device
	it := s.api.readers.List(params)
	for it.Next() {
		r := it.TerminalReader()
		if r.Status == readerOnline {
			devices = append(devices, toDevice(r))
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return devices, nil
}

// awaitAction polls the reader until its current action leaves
// in_progress. A nil action means the reader already cleared it.
func (s *SDK) awaitAction(ctx context.Context, readerID string) (*stripe.TerminalReaderAction, error) {
	for {
		params := &stripe.TerminalReaderParams{}
		params.Context = ctx
		r, err := s.api.readers.Get(readerID, params)
		if err != nil {
			return nil, fmt.Errorf("get reader %s: %w", readerID, err)
		}
		if r.Action == nil || string(r.Action.Status) != actionInProgress {
			return r.Action, nil
		}
		if err := s.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *SDK) cancelAction(readerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelActionTimeout)
	defer cancel()

	params := &stripe.TerminalReaderCancelActionParams{}
	params.Context = ctx
	if _, err := s.api.readers.CancelAction(readerID, params); err != nil {
		s.log.Warn().Err(err).Str("reader_id", readerID).Msg("cancel reader action failed")
	}
}

func (s *SDK) fetchIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := s.api.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", id, err)
	}
	return toIntent(pi)
}

func (s *SDK) readerID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return "", false
	}
	return s.device.ID, true
}

func (s *SDK) display(message string) {
	s.mu.Lock()
	observer := s.observer
	s.mu.Unlock()
	if observer != nil {
		observer.OnDisplayMessage(message)
	}
}

func (s *SDK) sleep(ctx context.Context) error {
	t := time.NewTimer(s.pollInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// leveledLogger routes stripe-go client logs into zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
func (l leveledLogger) Infof(format string, v ...interface{})  { l.log.Debug().Msgf(format, v...) }
func (l leveledLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l leveledLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }
