package terminal

import (
	"context"
	"errors"
	"sync"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

// Discovery wraps the SDK scan and allows one scan at a time.
type Discovery struct {
	sdk ports.ReaderSDK
	log zerolog.Logger

	mu     sync.Mutex
	active *scan
}

type scan struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDiscovery(sdk ports.ReaderSDK, log zerolog.Logger) *Discovery {
	return &Discovery{sdk: sdk, log: logger.Component(log, "discovery")}
}

// Discover blocks for the lifetime of the scan. A second call while a scan
// is active fails with DEV_001 instead of joining it. A scan stopped through
// ctx or Cancel returns domain.ErrCanceled.
func (d *Discovery) Discover(ctx context.Context, cfg domain.DiscoveryConfig, onUpdate func([]domain.Device)) error {
	d.mu.Lock()
	if d.active != nil {
		d.mu.Unlock()
		return apperror.ErrAlreadyDiscovering()
	}
	scanCtx, cancel := context.WithCancel(ctx)
	s := &scan{cancel: cancel, done: make(chan struct{})}
	d.active = s
	d.mu.Unlock()

	defer func() {
		cancel()
		d.mu.Lock()
		d.active = nil
		d.mu.Unlock()
		close(s.done)
	}()

	d.log.Debug().
		Str("method", string(cfg.Method)).
		Str("location_id", cfg.LocationID).
		Msg("scan started")

	err := d.sdk.Discover(scanCtx, cfg, onUpdate)

	if scanCtx.Err() != nil || errors.Is(err, domain.ErrCanceled) {
		d.log.Debug().Msg("scan stopped")
		return domain.ErrCanceled
	}
	if err != nil {
		d.log.Warn().Err(err).Msg("scan failed")
		return readerError(err)
	}
	return nil
}

// Cancel stops the active scan and waits for it to end. No-op when idle.
func (d *Discovery) Cancel(ctx context.Context) error {
	d.mu.Lock()
	s := d.active
	d.mu.Unlock()

	if s == nil {
		return nil
	}

	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsDiscovering reports whether a scan is active.
func (d *Discovery) IsDiscovering() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

// FindDevice scans until a reader with serial shows up. It returns
// ctx.Err() when ctx ends first, so callers can tell a deadline from a
// cancellation.
func (d *Discovery) FindDevice(ctx context.Context, cfg domain.DiscoveryConfig, serial string) (domain.Device, error) {
	findCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu    sync.Mutex
		found *domain.Device
	)
	err := d.Discover(findCtx, cfg, func(devices []domain.Device) {
		for _, dev := range devices {
			if dev.SerialNumber != serial {
				continue
			}
			mu.Lock()
			if found == nil {
				found = &dev
			}
			mu.Unlock()
			stop()
			return
		}
	})

	mu.Lock()
	defer mu.Unlock()
	switch {
	case found != nil:
		d.log.Info().Str("serial", serial).Msg("reader found")
		return *found, nil
	case ctx.Err() != nil:
		return domain.Device{}, ctx.Err()
	case err != nil && !errors.Is(err, domain.ErrCanceled):
		return domain.Device{}, err
	default:
		return domain.Device{}, apperror.ErrDeviceNotFound(serial)
	}
}

// readerError keeps domain errors and cancellations intact and wraps
// anything else as DEV_004.
func readerError(err error) error {
	if err == nil {
		return nil
	}
	if apperror.CodeOf(err) != "" || errors.Is(err, domain.ErrCanceled) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.ErrReaderFailure(err)
}
