package terminal

import (
	"context"
	"errors"

	"card-terminal/internal/core/domain"
	"card-terminal/pkg/apperror"
)

// enter runs the entry action of the state just entered. Each action does at
// most one asynchronous operation and resolves with one follow-up signal.
func (m *Machine) enter(s domain.State, e envelope) {
	switch s.Kind {
	case domain.StateNoDevice:
		m.persist.push(func(ctx context.Context) error { return m.store.Clear(ctx) })

	case domain.StateDiscoveringAtLocation:
		m.startOperation("discover", func(ctx context.Context, id uint64) domain.Signal {
			return m.discoverAt(ctx, id, s.Location)
		})

	case domain.StateSearchingBySerial:
		m.startOperation("search", func(ctx context.Context, _ uint64) domain.Signal {
			return m.searchBySerial(ctx, s.SerialNumber)
		})

	case domain.StateConnecting:
		m.startOperation("connect", func(ctx context.Context, _ uint64) domain.Signal {
			return m.connect(ctx, s.Location, s.Device)
		})

	case domain.StateDisconnectingForget:
		m.startOperation("forget", func(ctx context.Context, _ uint64) domain.Signal {
			return m.forget(ctx)
		})

	case domain.StateCharging:
		// The caller hears the result only after end_charging is queued, so
		// a charge it sends next is handled back in Connected.
		var after func(domain.Signal)
		if reply := e.reply; reply != nil {
			after = func(sig domain.Signal) { reply <- sig.Result }
		}
		m.startOperationThen("charge", func(ctx context.Context, _ uint64) domain.Signal {
			return domain.EndCharging(m.processor.Charge(ctx, s.Amount))
		}, after)

		// AutomaticUpdate keeps the connect operation of Connecting; the
		// remaining states have no entry action.
	}
}

func (m *Machine) discoverAt(ctx context.Context, id uint64, location domain.Location) domain.Signal {
	if err := m.discovery.Cancel(ctx); err != nil {
		return domain.NewSignal(domain.SignalCanceled)
	}

	cfg := m.cfg.Discovery
	cfg.LocationID = location.ID
	err := m.discovery.Discover(ctx, cfg, func(devices []domain.Device) {
		m.queue.push(envelope{kind: envelopeDevices, opID: id, devices: devices})
	})

	switch {
	case err == nil, ctx.Err() != nil, errors.Is(err, domain.ErrCanceled):
		return domain.NewSignal(domain.SignalCanceled)
	default:
		return domain.Failure(err)
	}
}

func (m *Machine) searchBySerial(ctx context.Context, serial string) domain.Signal {
	if err := m.discovery.Cancel(ctx); err != nil {
		return domain.NewSignal(domain.SignalCanceled)
	}

	searchCtx := ctx
	if m.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, m.cfg.SearchTimeout)
		defer cancel()
	}

	device, err := m.discovery.FindDevice(searchCtx, m.cfg.Discovery, serial)
	switch {
	case err == nil:
		return domain.DeviceFound(device)
	case ctx.Err() != nil, errors.Is(err, domain.ErrCanceled):
		return domain.NewSignal(domain.SignalCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		m.log.Warn().Str("serial", serial).Dur("timeout", m.cfg.SearchTimeout).Msg("reader not found before timeout")
		return domain.Failure(apperror.ErrDeviceNotFound(serial))
	default:
		return domain.Failure(err)
	}
}

func (m *Machine) connect(ctx context.Context, location domain.Location, device domain.Device) domain.Signal {
	if err := m.discovery.Cancel(ctx); err != nil {
		return domain.Failure(err)
	}
	if m.connection.IsConnectedTo(device.SerialNumber) {
		return domain.NewSignal(domain.SignalConnected)
	}

	locationID := location.ID
	if locationID == "" {
		locationID = device.LocationID
	}
	if locationID == "" {
		return domain.Failure(apperror.ErrNoLocation())
	}

	if _, err := m.connection.Connect(ctx, device, locationID); err != nil {
		return domain.Failure(err)
	}
	return domain.NewSignal(domain.SignalConnected)
}

func (m *Machine) forget(ctx context.Context) domain.Signal {
	err := m.connection.Disconnect(ctx)
	// Forgetting must not be blocked by a disconnect error.
	m.persist.push(func(ctx context.Context) error { return m.store.Clear(ctx) })
	if err != nil {
		return domain.Failure(err)
	}
	return domain.NewSignal(domain.SignalDisconnected)
}
