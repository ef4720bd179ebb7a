package terminal

import (
	"context"
	"sync"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

// Connection wraps connect/disconnect for a single reader and fans reader
// push events out to every subscriber.
type Connection struct {
	sdk ports.ReaderSDK
	log zerolog.Logger

	mu        sync.Mutex
	device    *domain.Device
	attempt   *connectAttempt
	observers []ports.ReaderEventObserver
}

// connectAttempt tracks update events seen while Connect is in flight.
type connectAttempt struct {
	updateStarted  bool
	updateFinished bool
}

func NewConnection(sdk ports.ReaderSDK, log zerolog.Logger) *Connection {
	return &Connection{sdk: sdk, log: logger.Component(log, "connection")}
}

// Subscribe registers an observer for reader push events.
func (c *Connection) Subscribe(o ports.ReaderEventObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Connect pairs with device at locationID.
//
// A mandatory update can finish and be reported before Connect returns. If
// the connection then fails, subscribers have already seen the reader as
// usable, so the failure is also reported as an unexpected disconnect.
func (c *Connection) Connect(ctx context.Context, device domain.Device, locationID string) (domain.Device, error) {
	attempt := &connectAttempt{}
	c.mu.Lock()
	c.attempt = attempt
	c.mu.Unlock()

	c.log.Info().
		Str("serial", device.SerialNumber).
		Str("location_id", locationID).
		Msg("connecting to reader")

	connected, err := c.sdk.Connect(ctx, device, locationID, sessionEvents{c})

	c.mu.Lock()
	c.attempt = nil
	if err == nil {
		c.device = &connected
	}
	started, finished := attempt.updateStarted, attempt.updateFinished
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Str("serial", device.SerialNumber).Msg("connect failed")
		if started {
			if !finished {
				c.fanOut(func(o ports.ReaderEventObserver) { o.OnUpdateFinished(err) })
			}
			c.fanOut(func(o ports.ReaderEventObserver) { o.OnUnexpectedDisconnect(device) })
		}
		return domain.Device{}, readerError(err)
	}

	c.log.Info().
		Str("serial", connected.SerialNumber).
		Str("software_version", connected.SoftwareVersion).
		Msg("reader connected")
	return connected, nil
}

// Disconnect ends the session. The connected device is cleared even when
// the SDK reports an error.
func (c *Connection) Disconnect(ctx context.Context) error {
	err := c.sdk.Disconnect(ctx)

	c.mu.Lock()
	c.device = nil
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Msg("disconnect failed")
		return readerError(err)
	}
	c.log.Info().Msg("reader disconnected")
	return nil
}

// InstallUpdate installs the pending update on the connected reader.
// Progress arrives through the subscribers.
func (c *Connection) InstallUpdate(ctx context.Context) error {
	if _, ok := c.ConnectedDevice(); !ok {
		return apperror.ErrNotConnected()
	}
	if err := c.sdk.InstallAvailableUpdate(ctx); err != nil {
		return readerError(err)
	}
	return nil
}

// ConnectedDevice returns the reader of the current session, if any.
func (c *Connection) ConnectedDevice() (domain.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return domain.Device{}, false
	}
	return *c.device, true
}

// IsConnectedTo reports whether the session belongs to serial.
func (c *Connection) IsConnectedTo(serial string) bool {
	d, ok := c.ConnectedDevice()
	return ok && d.SerialNumber == serial
}

func (c *Connection) fanOut(fn func(ports.ReaderEventObserver)) {
	c.mu.Lock()
	observers := append([]ports.ReaderEventObserver(nil), c.observers...)
	c.mu.Unlock()

	for _, o := range observers {
		fn(o)
	}
}

// sessionEvents is the observer handed to the SDK.
type sessionEvents struct {
	c *Connection
}

func (e sessionEvents) OnDisplayMessage(message string) {
	e.c.fanOut(func(o ports.ReaderEventObserver) { o.OnDisplayMessage(message) })
}

func (e sessionEvents) OnUpdateStarted(update domain.SoftwareUpdate) {
	e.c.mu.Lock()
	if e.c.attempt != nil {
		e.c.attempt.updateStarted = true
	}
	e.c.mu.Unlock()

	e.c.log.Info().Str("version", update.Version).Msg("reader update started")
	e.c.fanOut(func(o ports.ReaderEventObserver) { o.OnUpdateStarted(update) })
}

func (e sessionEvents) OnUpdateProgress(progress float64) {
	e.c.fanOut(func(o ports.ReaderEventObserver) { o.OnUpdateProgress(progress) })
}

func (e sessionEvents) OnUpdateFinished(err error) {
	e.c.mu.Lock()
	if e.c.attempt != nil {
		e.c.attempt.updateFinished = true
	}
	e.c.mu.Unlock()

	if err != nil {
		e.c.log.Warn().Err(err).Msg("reader update failed")
	} else {
		e.c.log.Info().Msg("reader update finished")
	}
	e.c.fanOut(func(o ports.ReaderEventObserver) { o.OnUpdateFinished(err) })
}

func (e sessionEvents) OnUnexpectedDisconnect(device domain.Device) {
	e.c.mu.Lock()
	e.c.device = nil
	e.c.mu.Unlock()

	e.c.log.Warn().Str("serial", device.SerialNumber).Msg("reader disconnected unexpectedly")
	e.c.fanOut(func(o ports.ReaderEventObserver) { o.OnUnexpectedDisconnect(device) })
}
