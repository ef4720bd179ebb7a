package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// DeviceStore implements ports.DeviceStore with one key per terminal. The
// key has no TTL: a remembered reader lives until it is forgotten.
type DeviceStore struct {
	client *goredis.Client
	key    string
}

func NewDeviceStore(client *goredis.Client, terminalID string) *DeviceStore {
	return &DeviceStore{
		client: client,
		key:    "terminal:" + terminalID + ":device_serial",
	}
}

// Get returns "" when no reader is remembered.
func (s *DeviceStore) Get(ctx context.Context) (string, error) {
	serial, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get device serial: %w", err)
	}
	return serial, nil
}

func (s *DeviceStore) Set(ctx context.Context, serialNumber string) error {
	if err := s.client.Set(ctx, s.key, serialNumber, 0).Err(); err != nil {
		return fmt.Errorf("redis set device serial: %w", err)
	}
	return nil
}

func (s *DeviceStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis delete device serial: %w", err)
	}
	return nil
}
