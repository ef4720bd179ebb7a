package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const deviceSerialKey = "device_serial"

// DeviceStore implements ports.DeviceStore as one row of terminal_settings
// per terminal.
type DeviceStore struct {
	pool       Pool
	terminalID string
	now        func() time.Time
}

func NewDeviceStore(pool Pool, terminalID string) *DeviceStore {
	return &DeviceStore{pool: pool, terminalID: terminalID, now: time.Now}
}

// Get returns "" when no reader is remembered.
func (s *DeviceStore) Get(ctx context.Context) (string, error) {
	query := `SELECT value FROM terminal_settings WHERE terminal_id = $1 AND key = $2`

	var serial string
	err := s.pool.QueryRow(ctx, query, s.terminalID, deviceSerialKey).Scan(&serial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get device serial: %w", err)
	}
	return serial, nil
}

func (s *DeviceStore) Set(ctx context.Context, serialNumber string) error {
	query := `INSERT INTO terminal_settings (terminal_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (terminal_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query, s.terminalID, deviceSerialKey, serialNumber, s.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert device serial: %w", err)
	}
	return nil
}

func (s *DeviceStore) Clear(ctx context.Context) error {
	query := `DELETE FROM terminal_settings WHERE terminal_id = $1 AND key = $2`

	if _, err := s.pool.Exec(ctx, query, s.terminalID, deviceSerialKey); err != nil {
		return fmt.Errorf("delete device serial: %w", err)
	}
	return nil
}
