package storage

import (
	"context"
	"strings"

	"github.com/bobmcallan/signin-portal/internal/interfaces"
)

// scopedStorage confines a KeyValueStorage to keys under a prefix, so each
// browser sees its own key space ("user", "isLoggedIn") in a shared store.
type scopedStorage struct {
	inner  interfaces.KeyValueStorage
	prefix string
}

// Scoped returns a view of inner where every key is transparently prefixed.
func Scoped(inner interfaces.KeyValueStorage, prefix string) interfaces.KeyValueStorage {
	return &scopedStorage{inner: inner, prefix: prefix}
}

// DevicePrefix returns the key prefix for a browser device id.
func DevicePrefix(deviceID string) string {
	return "device:" + deviceID + ":"
}

func (s *scopedStorage) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scopedStorage) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scopedStorage) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// GetAll returns only the keys under the prefix, with the prefix stripped.
func (s *scopedStorage) GetAll(ctx context.Context) (map[string]string, error) {
	var (
		all map[string]string
		err error
	)
	if lister, ok := s.inner.(interfaces.PrefixLister); ok {
		all, err = lister.List(ctx, s.prefix)
	} else {
		all, err = s.inner.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for k, v := range all {
		if strings.HasPrefix(k, s.prefix) {
			result[strings.TrimPrefix(k, s.prefix)] = v
		}
	}
	return result, nil
}
