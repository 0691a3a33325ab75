package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"openinverter2mqtt/internal/core/domain"

	"go.etcd.io/bbolt"
)

const (
	// telemetryBucket holds the last known reading set and its date
	telemetryBucket = "telemetry"

	// optionsBucket holds runtime options changed after startup
	optionsBucket = "options"

	keyCachedState  = "cached_state"
	keyScanInterval = "scan_interval"
)

// Store persists telemetry state across restarts on a single bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file and ensures the buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(telemetryBucket)); err != nil {
			return fmt.Errorf("failed to create telemetry bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(optionsBucket)); err != nil {
			return fmt.Errorf("failed to create options bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadState returns the persisted reading cache, or nil when nothing has been
// persisted yet.
func (s *Store) LoadState() (*domain.CachedState, error) {
	var state *domain.CachedState
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(telemetryBucket)).Get([]byte(keyCachedState))
		if data == nil {
			return nil
		}
		var decoded domain.CachedState
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("failed to unmarshal cached state: %w", err)
		}
		state = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) SaveState(state *domain.CachedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal cached state: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(telemetryBucket)).Put([]byte(keyCachedState), data)
	})
}

// LoadScanInterval returns the persisted scan interval override in seconds,
// or 0 when the configured default applies.
func (s *Store) LoadScanInterval() (uint, error) {
	var seconds uint
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(optionsBucket)).Get([]byte(keyScanInterval))
		if data == nil {
			return nil
		}
		parsed, err := strconv.ParseUint(string(data), 10, 32)
		if err != nil {
			return fmt.Errorf("failed to parse scan interval: %w", err)
		}
		seconds = uint(parsed)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seconds, nil
}

func (s *Store) SaveScanInterval(seconds uint) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		value := strconv.FormatUint(uint64(seconds), 10)
		return tx.Bucket([]byte(optionsBucket)).Put([]byte(keyScanInterval), []byte(value))
	})
}
