package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// record is one stored session value. Keys are namespaced by the caller,
// e.g. "device:<id>:user".
type record struct {
	Key       string `badgerhold:"key"`
	Value     string
	UpdatedAt time.Time
}

// KVStorage implements interfaces.KeyValueStorage using BadgerDB.
type KVStorage struct {
	db     *BadgerDB
	logger *common.Logger
	now    func() time.Time
}

// NewKVStorage creates a new key-value storage backed by BadgerDB.
func NewKVStorage(db *BadgerDB, logger *common.Logger) *KVStorage {
	return &KVStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Get retrieves a value by key. A missing key yields an error wrapping
// interfaces.ErrNotFound.
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	rec, err := s.get(ctx, key)
	if err != nil {
		return "", err
	}
	return rec.Value, nil
}

// UpdatedAt returns when key was last written.
func (s *KVStorage) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	rec, err := s.get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return rec.UpdatedAt, nil
}

func (s *KVStorage) get(ctx context.Context, key string) (record, error) {
	var rec record
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	if err := s.db.Store().Get(key, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return rec, fmt.Errorf("%w: %s", interfaces.ErrNotFound, key)
		}
		return rec, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return rec, nil
}

// Set stores a value, overwriting any previous one, and stamps the write time.
// Writes ignore ctx cancellation so a sign-in is not half recorded.
func (s *KVStorage) Set(_ context.Context, key, value string) error {
	rec := record{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.db.Store().Upsert(key, &rec); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *KVStorage) Delete(_ context.Context, key string) error {
	if err := s.db.Store().Delete(key, record{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// GetAll retrieves all key-value pairs.
func (s *KVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	return s.find(ctx, nil)
}

// List retrieves the key-value pairs whose key starts with prefix. Keys are
// returned in full.
func (s *KVStorage) List(ctx context.Context, prefix string) (map[string]string, error) {
	return s.find(ctx, badgerhold.Where("Key").HasPrefix(prefix))
}

func (s *KVStorage) find(ctx context.Context, query *badgerhold.Query) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []record
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	result := make(map[string]string, len(records))
	for _, rec := range records {
		result[rec.Key] = rec.Value
	}
	return result, nil
}
