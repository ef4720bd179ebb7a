package terminal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

const storeTimeout = 5 * time.Second

// Observer receives machine notifications on the owner goroutine, in order.
type Observer interface {
	OnStateChange(from, to domain.State, sig domain.Signal)
	OnError(err error)
	OnDevicesDiscovered(devices []domain.Device)
}

// MachineConfig holds entry-action parameters.
type MachineConfig struct {
	// SearchTimeout bounds a search by serial number. Zero waits until the
	// search is canceled.
	SearchTimeout time.Duration
	Discovery     domain.DiscoveryConfig
}

// Machine owns the terminal state. Every signal is handled on the goroutine
// running Run, strictly in arrival order.
type Machine struct {
	discovery  *Discovery
	connection *Connection
	processor  *Processor
	store      ports.DeviceStore
	cfg        MachineConfig
	observer   Observer
	log        zerolog.Logger

	queue   *fifo[envelope]
	persist *fifo[func(context.Context) error]
	running atomic.Bool
	stopped atomic.Bool
	done    chan struct{}

	mu    sync.RWMutex
	state domain.State

	// Owner goroutine only.
	baseCtx  context.Context
	op       *operation
	lastOpID uint64
	// lastDone is closed once the most recently started operation returns.
	lastDone <-chan struct{}
	// heldConnect is set when connect returned during a mandatory update.
	heldConnect bool
}

// operation is the single asynchronous job owned by the current state.
type operation struct {
	id     uint64
	name   string
	cancel context.CancelFunc
}

func NewMachine(
	initial domain.State,
	discovery *Discovery,
	connection *Connection,
	processor *Processor,
	store ports.DeviceStore,
	cfg MachineConfig,
	observer Observer,
	log zerolog.Logger,
) *Machine {
	if observer == nil {
		observer = nopObserver{}
	}
	m := &Machine{
		discovery:  discovery,
		connection: connection,
		processor:  processor,
		store:      store,
		cfg:        cfg,
		observer:   observer,
		log:        logger.Component(log, "machine"),
		queue:      newFIFO[envelope](),
		persist:    newFIFO[func(context.Context) error](),
		done:       make(chan struct{}),
		state:      initial,
	}
	connection.Subscribe(readerSignals{m})
	return m
}

// State returns the current state. Safe from any goroutine.
func (m *Machine) State() domain.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Done is closed once Run has returned.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Send queues an external signal. It never blocks.
func (m *Machine) Send(sig domain.Signal) error {
	return m.post(envelope{kind: envelopeSignal, signal: sig})
}

// SendCharge queues a charge signal. The returned channel receives the
// payment result exactly once, including when the charge is rejected
// because the terminal is not connected.
func (m *Machine) SendCharge(amount domain.Amount) (<-chan domain.PaymentResult, error) {
	reply := make(chan domain.PaymentResult, 1)
	if err := m.post(envelope{kind: envelopeSignal, signal: domain.ChargeSignal(amount), reply: reply}); err != nil {
		return nil, err
	}
	return reply, nil
}

// Cancel asks the current state to cancel its work. States that cannot be
// interrupted report TRM_002; states with nothing in flight return nil.
// A successful cancel resolves through a follow-up signal.
func (m *Machine) Cancel(ctx context.Context) error {
	done := make(chan error, 1)
	if err := m.post(envelope{kind: envelopeCancel, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return apperror.ErrMachineStopped()
	}
}

// Run processes signals until ctx is canceled.
func (m *Machine) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("machine already running")
	}
	m.baseCtx = ctx

	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		m.persistLoop(ctx)
	}()

	m.log.Info().Str("state", m.State().String()).Msg("terminal machine started")

	for {
		for {
			e, ok := m.queue.pop()
			if !ok {
				break
			}
			m.dispatch(e)
		}

		select {
		case <-ctx.Done():
			m.shutdown()
			<-persistDone
			close(m.done)
			m.log.Info().Msg("terminal machine stopped")
			return nil
		case <-m.queue.ready:
		}
	}
}

func (m *Machine) post(e envelope) error {
	if m.stopped.Load() {
		return apperror.ErrMachineStopped()
	}
	m.queue.push(e)
	return nil
}

func (m *Machine) dispatch(e envelope) {
	switch e.kind {
	case envelopeCancel:
		e.done <- m.cancelCurrent()
	case envelopeDevices:
		if m.op != nil && m.op.id == e.opID {
			m.observer.OnDevicesDiscovered(e.devices)
		}
	default:
		m.handle(e)
	}
}

func (m *Machine) handle(e envelope) {
	sig := e.signal

	if e.opID != 0 {
		if m.op == nil || m.op.id != e.opID {
			m.log.Debug().
				Uint64("op", e.opID).
				Str("signal", sig.String()).
				Msg("dropping follow-up of superseded operation")
			return
		}
		// Every operation posts exactly one follow-up.
		m.op.cancel()
		m.op = nil

		if sig.Kind == domain.SignalConnected && m.State().Kind == domain.StateAutomaticUpdate {
			// Connect may return before the reader reports the end of its
			// update. The completion is handled after end_update.
			m.log.Debug().Msg("holding connect completion until the update ends")
			m.heldConnect = true
			return
		}
	}

	from := m.State()
	to, ok := domain.NextState(from, sig)
	if !ok {
		m.reject(from, e)
		return
	}

	m.mu.Lock()
	m.state = to
	m.mu.Unlock()

	m.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("signal", string(sig.Kind)).
		Msg("state changed")

	if sig.Kind == domain.SignalFailure && sig.Err != nil {
		m.observer.OnError(sig.Err)
	}
	if sig.Kind == domain.SignalSelectDevice {
		serial := sig.Device.SerialNumber
		m.persist.push(func(ctx context.Context) error { return m.store.Set(ctx, serial) })
	}
	m.observer.OnStateChange(from, to, sig)

	if from.Kind == domain.StateConnected && to.Kind == domain.StateConnected {
		return
	}
	switch {
	case inheritsOperation(from.Kind, to.Kind):
	case from.Kind == domain.StateConnected:
		// A connect that finished its mandatory update may still be
		// returning; let it complete and drop its follow-up.
		m.detachOperation()
	default:
		m.abandonOperation()
	}
	m.enter(to, e)

	if m.heldConnect && from.Kind == domain.StateAutomaticUpdate {
		m.heldConnect = false
		m.handle(envelope{kind: envelopeSignal, signal: domain.NewSignal(domain.SignalConnected)})
	}
}

// reject handles a signal that is not valid in the current state. It is
// converted into one failure signal; a failure that is itself invalid is
// only reported, so rejection cannot recurse.
func (m *Machine) reject(from domain.State, e envelope) {
	err := apperror.ErrIllegalTransition(from.String(), string(e.signal.Kind))
	if e.reply != nil {
		e.reply <- domain.PaymentFailed(err)
	}

	if e.signal.Kind == domain.SignalFailure {
		m.log.Error().
			Err(e.signal.Err).
			Str("state", from.String()).
			Msg("failure signal not valid in current state")
		m.observer.OnError(errors.Join(err, e.signal.Err))
		return
	}

	m.log.Warn().
		Str("state", from.String()).
		Str("signal", e.signal.String()).
		Msg("illegal transition")
	m.handle(envelope{kind: envelopeSignal, signal: domain.Failure(err)})
}

// inheritsOperation reports whether the connect operation keeps running
// across the transition. A mandatory update happens inside Connect.
func inheritsOperation(from, to domain.StateKind) bool {
	return (from == domain.StateConnecting && to == domain.StateAutomaticUpdate) ||
		(from == domain.StateAutomaticUpdate && to == domain.StateConnected)
}

func (m *Machine) cancelCurrent() error {
	state := m.State()
	switch state.Kind {
	case domain.StateDiscoveringAtLocation, domain.StateSearchingBySerial:
		if m.op != nil {
			m.log.Info().Str("op", m.op.name).Msg("canceling operation")
			m.op.cancel()
		}
		return nil
	case domain.StateCharging:
		return m.processor.Cancel()
	case domain.StateConnecting, domain.StateAutomaticUpdate,
		domain.StateUserInitiatedUpdate, domain.StateDisconnectingForget:
		return apperror.ErrNotCancelable(string(state.Kind))
	default:
		return nil
	}
}

// startOperation runs fn on its own goroutine and posts its result back as
// a follow-up tagged with the operation id. fn starts only after the previous
// operation has returned, so reader calls never overlap.
func (m *Machine) startOperation(name string, fn func(ctx context.Context, id uint64) domain.Signal) {
	m.startOperationThen(name, fn, nil)
}

// startOperationThen is startOperation with a callback that runs once the
// follow-up is queued. Signals sent from after are handled after it.
func (m *Machine) startOperationThen(
	name string,
	fn func(ctx context.Context, id uint64) domain.Signal,
	after func(domain.Signal),
) {
	m.lastOpID++
	id := m.lastOpID
	ctx, cancel := context.WithCancel(m.baseCtx)
	m.op = &operation{id: id, name: name, cancel: cancel}

	prev := m.lastDone
	done := make(chan struct{})
	m.lastDone = done

	m.log.Debug().Uint64("op", id).Str("name", name).Msg("operation started")

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		sig := fn(ctx, id)
		m.queue.push(envelope{kind: envelopeSignal, signal: sig, opID: id})
		if after != nil {
			after(sig)
		}
	}()
}

func (m *Machine) detachOperation() {
	if m.op == nil {
		return
	}
	m.log.Debug().Uint64("op", m.op.id).Str("name", m.op.name).Msg("operation detached")
	m.op = nil
}

func (m *Machine) abandonOperation() {
	if m.op == nil {
		return
	}
	m.log.Debug().Uint64("op", m.op.id).Str("name", m.op.name).Msg("operation abandoned")
	m.op.cancel()
	m.op = nil
}

func (m *Machine) shutdown() {
	m.stopped.Store(true)
	m.abandonOperation()

	for _, e := range m.queue.drain() {
		switch {
		case e.reply != nil:
			e.reply <- domain.PaymentFailed(apperror.ErrMachineStopped())
		case e.done != nil:
			e.done <- apperror.ErrMachineStopped()
		}
	}
}

// persistLoop applies device store writes in order, off the owner goroutine.
func (m *Machine) persistLoop(ctx context.Context) {
	flush := func() {
		for {
			write, ok := m.persist.pop()
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
			if err := write(wctx); err != nil {
				m.log.Error().Err(err).Msg("updating remembered reader failed")
			}
			cancel()
		}
	}

	for {
		flush()
		select {
		case <-ctx.Done():
			flush()
			return
		case <-m.persist.ready:
		}
	}
}

// readerSignals turns reader push events into machine signals.
type readerSignals struct {
	m *Machine
}

func (r readerSignals) OnDisplayMessage(string) {}

func (r readerSignals) OnUpdateProgress(float64) {}

func (r readerSignals) OnUpdateStarted(domain.SoftwareUpdate) {
	_ = r.m.Send(domain.NewSignal(domain.SignalBeginUpdate))
}

func (r readerSignals) OnUpdateFinished(error) {
	_ = r.m.Send(domain.NewSignal(domain.SignalEndUpdate))
}

func (r readerSignals) OnUnexpectedDisconnect(domain.Device) {
	_ = r.m.Send(domain.NewSignal(domain.SignalDisconnectedUnexpectedly))
}

type nopObserver struct{}

func (nopObserver) OnStateChange(domain.State, domain.State, domain.Signal) {}
func (nopObserver) OnError(error)                                           {}
func (nopObserver) OnDevicesDiscovered([]domain.Device)                     {}
