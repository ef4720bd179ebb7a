// Package simulator is an in-process reader SDK. It behaves like a
// simulated reader: scans find a fixed set of readers, payments settle
// without a card, and a few amounts trigger declines and retries.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Amounts whose minor units end in these cents trigger scripted outcomes,
// once per intent.
const (
	declineCents  = 1 // card declined, a new card is needed
	retryCents    = 2 // confirmation must be retried
	noChargeCents = 3 // confirmed without a settled charge
)

var (
	errNoTokenProvider = errors.New("no connection token provider registered")
	errNotConnected    = errors.New("no reader connected")
)

// Options tunes the simulated reader.
type Options struct {
	Locations []domain.Location
	Devices   []domain.Device
	Card      domain.CardDetails
	// UpdateRequired makes every connect install a mandatory update first.
	UpdateRequired bool
	UpdateVersion  string
	// ScanDelay is the wait before readers appear. CollectDelay is how long
	// the simulated customer takes to present a card.
	ScanDelay    time.Duration
	CollectDelay time.Duration
	UpdateStep   time.Duration
}

// DefaultOptions returns a location with two Bluetooth readers and one
// smart reader.
func DefaultOptions() Options {
	return Options{
		Locations: []domain.Location{{ID: "tml_simulated", DisplayName: "Simulated store"}},
		Devices: []domain.Device{
			{ID: "tmr_sim_1", SerialNumber: "STRM26138003393", Label: "Counter", DeviceType: domain.DeviceTypeWisePad3, LocationID: "tml_simulated", BatteryLevel: 0.8, SoftwareVersion: "1.00.03.34"},
			{ID: "tmr_sim_2", SerialNumber: "CHB204909005931", Label: "Mobile", DeviceType: domain.DeviceTypeChipper2X, LocationID: "tml_simulated", BatteryLevel: 0.45, SoftwareVersion: "1.00.03.34"},
			{ID: "tmr_sim_3", SerialNumber: "WSC513105011295", Label: "Kiosk", DeviceType: domain.DeviceTypeWisePosE, LocationID: "tml_simulated", BatteryLevel: -1, SoftwareVersion: "2.11.0.15"},
		},
		Card:          domain.CardDetails{Brand: "visa", Last4: "4242"},
		UpdateVersion: "1.00.03.40",
		ScanDelay:     200 * time.Millisecond,
		CollectDelay:  time.Second,
		UpdateStep:    100 * time.Millisecond,
	}
}

// SDK implements ports.ReaderSDK without hardware.
type SDK struct {
	opts Options
	log  zerolog.Logger
	now  func() time.Time

	mu        sync.Mutex
	provider  ports.ConnectionTokenProvider
	connected *domain.Device
	observer  ports.ReaderEventObserver
	scripted  map[string]bool
}

var _ ports.ReaderSDK = (*SDK)(nil)

func New(opts Options, log zerolog.Logger) *SDK {
	return &SDK{
		opts:     opts,
		log:      logger.Component(log, "simulator"),
		now:      time.Now,
		scripted: make(map[string]bool),
	}
}

func (s *SDK) SetTokenProvider(provider ports.ConnectionTokenProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
}

func (s *SDK) ListLocations(ctx context.Context) ([]domain.Location, error) {
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}
	return append([]domain.Location(nil), s.opts.Locations...), nil
}

// Discover reports the readers visible for cfg and blocks until ctx ends.
func (s *SDK) Discover(ctx context.Context, cfg domain.DiscoveryConfig, onUpdate func([]domain.Device)) error {
	if err := s.sleep(ctx, s.opts.ScanDelay); err != nil {
		return domain.ErrCanceled
	}

	var visible []domain.Device
	for _, d := range s.opts.Devices {
		if cfg.Method == domain.DiscoveryBluetoothScan && !d.DeviceType.UsesBluetooth() {
			continue
		}
		if cfg.Method == domain.DiscoveryInternet && cfg.LocationID != "" && d.LocationID != cfg.LocationID {
			continue
		}
		visible = append(visible, d)
	}
	onUpdate(visible)

	<-ctx.Done()
	return domain.ErrCanceled
}

// Connect pairs with device. A required update is installed before Connect
// returns, with progress reported to observer.
func (s *SDK) Connect(ctx context.Context, device domain.Device, locationID string, observer ports.ReaderEventObserver) (domain.Device, error) {
	if err := s.authenticate(ctx); err != nil {
		return domain.Device{}, err
	}
	if !device.DeviceType.UsesBluetooth() {
		return domain.Device{}, apperror.ErrUnsupportedDevice(string(device.DeviceType))
	}

	connected := device
	connected.LocationID = locationID

	if s.opts.UpdateRequired || device.RequiresImmediateUpdate(s.now()) {
		update := domain.SoftwareUpdate{Version: s.opts.UpdateVersion, RequiredAt: s.now()}
		if device.AvailableUpdate != nil {
			update = *device.AvailableUpdate
		}
		if err := s.runUpdate(ctx, update, observer); err != nil {
			return domain.Device{}, err
		}
		connected.SoftwareVersion = update.Version
		connected.AvailableUpdate = nil
	}

	s.mu.Lock()
	s.connected = &connected
	s.observer = observer
	s.mu.Unlock()

	s.log.Info().Str("serial", connected.SerialNumber).Msg("simulated reader connected")
	return connected, nil
}

func (s *SDK) Disconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = nil
	s.observer = nil
	return nil
}

// InstallAvailableUpdate installs the configured update version.
func (s *SDK) InstallAvailableUpdate(ctx context.Context) error {
	s.mu.Lock()
	device, observer := s.connected, s.observer
	s.mu.Unlock()

	if device == nil {
		return errNotConnected
	}
	update := domain.SoftwareUpdate{Version: s.opts.UpdateVersion}
	if device.AvailableUpdate != nil {
		update = *device.AvailableUpdate
	}
	if err := s.runUpdate(ctx, update, observer); err != nil {
		return err
	}

	s.mu.Lock()
	if s.connected != nil {
		refreshed := *s.connected
		refreshed.SoftwareVersion = update.Version
		refreshed.AvailableUpdate = nil
		s.connected = &refreshed
	}
	s.mu.Unlock()
	return nil
}

func (s *SDK) CreatePaymentIntent(_ context.Context, amount domain.Amount) (*domain.PaymentIntent, error) {
	if _, ok := s.connectedDevice(); !ok {
		return nil, errNotConnected
	}
	return &domain.PaymentIntent{
		ID:     "pi_" + uuid.NewString(),
		Amount: amount,
		Status: domain.IntentRequiresPaymentMethod,
	}, nil
}

// CollectPaymentMethod waits for the simulated card. Canceling ctx aborts
// the collection with domain.ErrCanceled.
func (s *SDK) CollectPaymentMethod(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	if _, ok := s.connectedDevice(); !ok {
		return nil, errNotConnected
	}
	s.display("Insert, tap or swipe card")

	if err := s.sleep(ctx, s.opts.CollectDelay); err != nil {
		s.display("Payment canceled")
		return nil, domain.ErrCanceled
	}

	s.display("Remove card")
	collected := *intent
	collected.Status = domain.IntentRequiresConfirmation
	return &collected, nil
}

// ProcessPayment confirms the intent. Amounts ending in 01, 02 or 03 cents
// fail the first confirmation of an intent in a scripted way.
func (s *SDK) ProcessPayment(_ context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	if _, ok := s.connectedDevice(); !ok {
		return nil, &domain.ConfirmationError{Err: errNotConnected}
	}

	cents := intent.Amount.MinorUnits() % 100
	if s.firstAttempt(intent.ID) {
		switch cents {
		case declineCents:
			declined := *intent
			declined.Status = domain.IntentRequiresPaymentMethod
			declined.Charges = append(append([]domain.Charge(nil), intent.Charges...), s.charge(intent.Amount, domain.ChargeFailed))
			return nil, &domain.ConfirmationError{Err: errors.New("card declined"), Intent: &declined}
		case retryCents:
			pending := *intent
			pending.Status = domain.IntentRequiresConfirmation
			return nil, &domain.ConfirmationError{Err: errors.New("processor timeout"), Intent: &pending}
		case noChargeCents:
			confirmed := *intent
			confirmed.Status = domain.IntentRequiresCapture
			confirmed.Charges = []domain.Charge{s.charge(intent.Amount, domain.ChargePending)}
			return &confirmed, nil
		}
	}

	confirmed := *intent
	confirmed.Status = domain.IntentRequiresCapture
	confirmed.Charges = append(append([]domain.Charge(nil), intent.Charges...), s.charge(intent.Amount, domain.ChargeSucceeded))
	return &confirmed, nil
}

// SimulateDisconnect drops the connected reader as if it went out of range.
func (s *SDK) SimulateDisconnect() {
	s.mu.Lock()
	device, observer := s.connected, s.observer
	s.connected = nil
	s.observer = nil
	s.mu.Unlock()

	if device != nil && observer != nil {
		observer.OnUnexpectedDisconnect(*device)
	}
}

func (s *SDK) authenticate(ctx context.Context) error {
	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()

	if provider == nil {
		return errNoTokenProvider
	}
	if _, err := provider.FetchConnectionToken(ctx); err != nil {
		return fmt.Errorf("fetch connection token: %w", err)
	}
	return nil
}

func (s *SDK) runUpdate(ctx context.Context, update domain.SoftwareUpdate, observer ports.ReaderEventObserver) error {
	if observer == nil {
		return errNotConnected
	}
	observer.OnUpdateStarted(update)
	for _, p := range []float64{0.25, 0.5, 0.75, 1} {
		if err := s.sleep(ctx, s.opts.UpdateStep); err != nil {
			observer.OnUpdateFinished(err)
			return err
		}
		observer.OnUpdateProgress(p)
	}
	observer.OnUpdateFinished(nil)
	return nil
}

func (s *SDK) charge(amount domain.Amount, status domain.ChargeStatus) domain.Charge {
	card := s.opts.Card
	return domain.Charge{ID: "ch_" + uuid.NewString(), Amount: amount, Status: status, Card: &card}
}

func (s *SDK) firstAttempt(intentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scripted[intentID] {
		return false
	}
	s.scripted[intentID] = true
	return true
}

func (s *SDK) connectedDevice() (domain.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected == nil {
		return domain.Device{}, false
	}
	return *s.connected, true
}

func (s *SDK) display(message string) {
	s.mu.Lock()
	observer := s.observer
	s.mu.Unlock()
	if observer != nil {
		observer.OnDisplayMessage(message)
	}
}

func (s *SDK) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
