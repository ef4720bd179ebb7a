package terminal

import (
	"context"
	"sync"
	"testing"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	frontDesk  = domain.Location{ID: "tml_1", DisplayName: "Front desk"}
	backOffice = domain.Location{ID: "tml_2", DisplayName: "Back office"}
	wisePad    = domain.Device{
		ID:           "tmr_1",
		SerialNumber: "WPC-1",
		DeviceType:   domain.DeviceTypeWisePad3,
		LocationID:   "tml_1",
	}
	chipper = domain.Device{
		ID:           "tmr_2",
		SerialNumber: "CHB-2",
		DeviceType:   domain.DeviceTypeChipper2X,
		LocationID:   "tml_1",
	}
)

// fakeSDK is a scriptable reader. Discover reports the configured devices
// and blocks until canceled; the other calls consult the optional hooks.
type fakeSDK struct {
	mu       sync.Mutex
	provider ports.ConnectionTokenProvider
	devices  []domain.Device
	observer ports.ReaderEventObserver

	discoverErr error
	onConnect   func(ctx context.Context, device domain.Device, observer ports.ReaderEventObserver) error
	onCollect   func(ctx context.Context) error
	disconnects int
}

func (f *fakeSDK) SetTokenProvider(p ports.ConnectionTokenProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider = p
}

func (f *fakeSDK) ListLocations(context.Context) ([]domain.Location, error) {
	return []domain.Location{frontDesk, backOffice}, nil
}

func (f *fakeSDK) Discover(ctx context.Context, _ domain.DiscoveryConfig, onUpdate func([]domain.Device)) error {
	f.mu.Lock()
	devices, err := f.devices, f.discoverErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if len(devices) > 0 {
		onUpdate(devices)
	}
	<-ctx.Done()
	return domain.ErrCanceled
}

func (f *fakeSDK) Connect(ctx context.Context, device domain.Device, _ string, observer ports.ReaderEventObserver) (domain.Device, error) {
	f.mu.Lock()
	f.observer = observer
	hook := f.onConnect
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, device, observer); err != nil {
			return domain.Device{}, err
		}
	}
	return device, nil
}

func (f *fakeSDK) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeSDK) InstallAvailableUpdate(context.Context) error {
	f.mu.Lock()
	observer := f.observer
	f.mu.Unlock()

	observer.OnUpdateStarted(domain.SoftwareUpdate{Version: "2.0.0"})
	observer.OnUpdateProgress(0.5)
	observer.OnUpdateFinished(nil)
	return nil
}

func (f *fakeSDK) CreatePaymentIntent(_ context.Context, amount domain.Amount) (*domain.PaymentIntent, error) {
	return &domain.PaymentIntent{ID: "pi_fake", Amount: amount, Status: domain.IntentRequiresPaymentMethod}, nil
}

func (f *fakeSDK) CollectPaymentMethod(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	f.mu.Lock()
	hook := f.onCollect
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	collected := *intent
	collected.Status = domain.IntentRequiresConfirmation
	return &collected, nil
}

func (f *fakeSDK) ProcessPayment(_ context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	confirmed := *intent
	confirmed.Status = domain.IntentRequiresCapture
	confirmed.Charges = []domain.Charge{{ID: "ch_fake", Amount: intent.Amount, Status: domain.ChargeSucceeded}}
	return &confirmed, nil
}

func (f *fakeSDK) sessionObserver() ports.ReaderEventObserver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.observer
}

type fakeBackend struct{}

func (fakeBackend) FetchConnectionToken(context.Context) (string, error) { return "pst_test", nil }
func (fakeBackend) CapturePaymentIntent(context.Context, string) error   { return nil }

type fakeStore struct {
	mu     sync.Mutex
	serial string
	err    error
}

func (s *fakeStore) Get(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serial, s.err
}

func (s *fakeStore) Set(_ context.Context, serial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serial = serial
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serial = ""
	return nil
}

func (s *fakeStore) value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serial
}

// recorder collects machine notifications.
type recorder struct {
	mu      sync.Mutex
	states  []domain.State
	errs    []error
	devices [][]domain.Device
}

func (r *recorder) OnStateChange(_, to domain.State, _ domain.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, to)
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) OnDevicesDiscovered(devices []domain.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, devices)
}

func (r *recorder) kinds() []domain.StateKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.StateKind, 0, len(r.states))
	for _, s := range r.states {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type machineTestDeps struct {
	machine  *Machine
	sdk      *fakeSDK
	store    *fakeStore
	observer *recorder
}

func setupMachine(t *testing.T, initial domain.State, cfg MachineConfig) *machineTestDeps {
	t.Helper()
	d := &machineTestDeps{
		sdk:      &fakeSDK{devices: []domain.Device{wisePad, chipper}},
		store:    &fakeStore{serial: initial.SerialNumber},
		observer: &recorder{},
	}
	log := zerolog.Nop()
	processor := NewProcessor(d.sdk, fakeBackend{}, RetryPolicy{MaxConfirmRetries: 1, MaxAmbiguousRetries: 1}, log)
	d.machine = NewMachine(
		initial,
		NewDiscovery(d.sdk, log),
		NewConnection(d.sdk, log),
		processor,
		d.store,
		cfg,
		d.observer,
		log,
	)
	return d
}

// start runs the machine until the test ends.
func (d *machineTestDeps) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.machine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-d.machine.Done()
	})
}

func waitForState(t *testing.T, m *Machine, kind domain.StateKind) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State().Kind == kind },
		2*time.Second, 5*time.Millisecond, "want state %s", kind)
}

func tenEuros(t *testing.T) domain.Amount {
	t.Helper()
	a, err := domain.ParseAmount("10.00", "eur")
	require.NoError(t, err)
	return a
}
