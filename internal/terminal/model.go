package terminal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

// Listener receives terminal notifications. State, error and device
// callbacks come from the machine goroutine; display and progress
// callbacks come from the reader SDK.
type Listener interface {
	OnStateChange(from, to domain.State)
	OnError(err error)
	OnDevicesDiscovered(devices []domain.Device)
	OnDisplayMessage(message string)
	OnUpdateProgress(progress float64)
}

// Settings configures a Model.
type Settings struct {
	AutoReconnect bool
	SearchTimeout time.Duration
	Discovery     domain.DiscoveryConfig
	Retry         RetryPolicy
}

// Model is the facade used by the control API. It turns requests into
// signals and relays machine and reader notifications to listeners.
type Model struct {
	sdk        ports.ReaderSDK
	connection *Connection
	machine    *Machine
	settings   Settings
	log        zerolog.Logger

	// charging is held from SendCharge until the charge resolves, so a
	// second charge never reaches the machine while one is in flight.
	charging atomic.Bool

	mu        sync.RWMutex
	runCtx    context.Context
	devices   []domain.Device
	listeners []Listener
}

var _ ports.TerminalService = (*Model)(nil)

// NewModel reads the remembered reader once to pick the initial state.
func NewModel(
	ctx context.Context,
	sdk ports.ReaderSDK,
	backend ports.BackendAPI,
	store ports.DeviceStore,
	settings Settings,
	log zerolog.Logger,
) (*Model, error) {
	serial, err := store.Get(ctx)
	if err != nil {
		return nil, apperror.ErrStorageError(err)
	}

	m := &Model{
		sdk:      sdk,
		settings: settings,
		log:      logger.Component(log, "model"),
		runCtx:   context.Background(),
	}

	processor := NewProcessor(sdk, backend, settings.Retry, log)
	discovery := NewDiscovery(sdk, log)
	m.connection = NewConnection(sdk, log)
	m.machine = NewMachine(
		domain.InitialState(serial),
		discovery,
		m.connection,
		processor,
		store,
		MachineConfig{SearchTimeout: settings.SearchTimeout, Discovery: settings.Discovery},
		machineEvents{m},
		log,
	)
	m.connection.Subscribe(readerEvents{m})

	return m, nil
}

// Run drives the terminal until ctx is canceled. A remembered reader is
// reconnected first when AutoReconnect is set.
func (m *Model) Run(ctx context.Context) error {
	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()

	if m.settings.AutoReconnect && m.machine.State().Kind == domain.StateDisconnected {
		m.log.Info().Str("serial", m.machine.State().SerialNumber).Msg("reconnecting remembered reader")
		if err := m.machine.Send(domain.NewSignal(domain.SignalReconnect)); err != nil {
			return err
		}
	}
	return m.machine.Run(ctx)
}

// Subscribe registers a listener.
func (m *Model) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Model) State() domain.State {
	return m.machine.State()
}

func (m *Model) Locations(ctx context.Context) ([]domain.Location, error) {
	locations, err := m.sdk.ListLocations(ctx)
	if err != nil {
		return nil, readerError(err)
	}
	return locations, nil
}

// Devices returns the readers seen by the current discovery.
func (m *Model) Devices() []domain.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Device(nil), m.devices...)
}

func (m *Model) SelectLocation(location domain.Location) error {
	return m.machine.Send(domain.SelectLocation(location))
}

// SelectDevice picks a reader from the current discovery results.
func (m *Model) SelectDevice(serialNumber string) error {
	for _, d := range m.Devices() {
		if d.SerialNumber == serialNumber {
			return m.machine.Send(domain.SelectDevice(d))
		}
	}
	return apperror.ErrUnknownDevice(serialNumber)
}

func (m *Model) Reconnect() error {
	return m.machine.Send(domain.NewSignal(domain.SignalReconnect))
}

func (m *Model) Forget() error {
	return m.machine.Send(domain.NewSignal(domain.SignalForgetReader))
}

func (m *Model) Cancel(ctx context.Context) error {
	return m.machine.Cancel(ctx)
}

// InstallUpdate starts installing the pending reader update. The machine
// follows the update through reader events; failures reach listeners.
func (m *Model) InstallUpdate(ctx context.Context) error {
	if m.State().Kind != domain.StateConnected {
		return apperror.ErrNotConnected()
	}

	m.mu.RLock()
	runCtx := m.runCtx
	m.mu.RUnlock()

	go func() {
		if err := m.connection.InstallUpdate(runCtx); err != nil {
			m.log.Error().Err(err).Msg("installing reader update failed")
			m.notify(func(l Listener) { l.OnError(err) })
		}
	}()
	return nil
}

// Charge runs one payment and waits for its result. Only one charge runs at
// a time; others get TRM_004. If ctx ends first the payment keeps running,
// its result is only visible in the state and new charges are refused until
// it resolves.
func (m *Model) Charge(ctx context.Context, amount domain.Amount) (domain.PaymentResult, error) {
	if amount.IsZero() {
		return domain.PaymentResult{}, apperror.ErrInvalidAmount("must be greater than zero")
	}
	if !m.charging.CompareAndSwap(false, true) {
		return domain.PaymentResult{}, apperror.ErrChargeInProgress()
	}

	reply, err := m.machine.SendCharge(amount)
	if err != nil {
		m.charging.Store(false)
		return domain.PaymentResult{}, err
	}

	select {
	case result := <-reply:
		m.charging.Store(false)
		return result, nil
	case <-ctx.Done():
		go m.releaseCharge(reply)
		return domain.PaymentResult{}, ctx.Err()
	case <-m.machine.Done():
		m.charging.Store(false)
		return domain.PaymentResult{}, apperror.ErrMachineStopped()
	}
}

// releaseCharge frees the charge slot once a charge whose caller stopped
// waiting has resolved.
func (m *Model) releaseCharge(reply <-chan domain.PaymentResult) {
	select {
	case <-reply:
	case <-m.machine.Done():
	}
	m.charging.Store(false)
}

func (m *Model) notify(fn func(Listener)) {
	m.mu.RLock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.RUnlock()

	for _, l := range listeners {
		fn(l)
	}
}

type machineEvents struct {
	m *Model
}

func (e machineEvents) OnStateChange(from, to domain.State, _ domain.Signal) {
	if to.Kind != domain.StateDiscoveringAtLocation || from.Kind != domain.StateDiscoveringAtLocation {
		e.m.mu.Lock()
		e.m.devices = nil
		e.m.mu.Unlock()
	}
	e.m.notify(func(l Listener) { l.OnStateChange(from, to) })
}

func (e machineEvents) OnError(err error) {
	e.m.notify(func(l Listener) { l.OnError(err) })
}

func (e machineEvents) OnDevicesDiscovered(devices []domain.Device) {
	e.m.mu.Lock()
	e.m.devices = append([]domain.Device(nil), devices...)
	e.m.mu.Unlock()
	e.m.notify(func(l Listener) { l.OnDevicesDiscovered(devices) })
}

type readerEvents struct {
	m *Model
}

func (e readerEvents) OnDisplayMessage(message string) {
	e.m.notify(func(l Listener) { l.OnDisplayMessage(message) })
}

func (e readerEvents) OnUpdateStarted(domain.SoftwareUpdate) {
	e.m.notify(func(l Listener) { l.OnUpdateProgress(0) })
}

func (e readerEvents) OnUpdateProgress(progress float64) {
	e.m.notify(func(l Listener) { l.OnUpdateProgress(progress) })
}

func (e readerEvents) OnUpdateFinished(err error) {
	if err != nil {
		e.m.notify(func(l Listener) { l.OnError(readerError(err)) })
		return
	}
	e.m.notify(func(l Listener) { l.OnUpdateProgress(1) })
}

func (e readerEvents) OnUnexpectedDisconnect(domain.Device) {}
