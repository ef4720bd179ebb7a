// Package memory holds process-local stores for single-terminal setups and
// local development. Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"card-terminal/internal/core/ports"
)

// DeviceStore implements ports.DeviceStore in memory.
type DeviceStore struct {
	mu     sync.Mutex
	serial string
}

// NewDeviceStore seeds the store with serial, which may be empty.
func NewDeviceStore(serial string) *DeviceStore {
	return &DeviceStore{serial: serial}
}

func (s *DeviceStore) Get(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serial, nil
}

func (s *DeviceStore) Set(_ context.Context, serialNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serial = serialNumber
	return nil
}

func (s *DeviceStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serial = ""
	return nil
}

// RateLimitStore implements ports.RateLimitStore with fixed windows kept
// in a map. Counters of past windows are dropped on the next call.
type RateLimitStore struct {
	mu       sync.Mutex
	counters map[string]windowCount
	now      func() time.Time
}

type windowCount struct {
	windowID int64
	count    int64
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{counters: make(map[string]windowCount), now: time.Now}
}

func (s *RateLimitStore) Allow(_ context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	windowSecs := int64(window / time.Second)
	if windowSecs < 1 {
		windowSecs = 1
	}
	windowID := s.now().Unix() / windowSecs

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.counters {
		if c.windowID != windowID {
			delete(s.counters, k)
		}
	}

	c := s.counters[key]
	c.windowID = windowID
	c.count++
	s.counters[key] = c

	remaining := limit - c.count
	if remaining < 0 {
		remaining = 0
	}
	return &ports.RateLimitResult{
		Allowed:   c.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (windowID + 1) * windowSecs,
	}, nil
}
