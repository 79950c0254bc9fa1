// Package storage selects and wraps the key-value backend used as the
// per-browser session store.
package storage

import (
	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/config"
	"github.com/bobmcallan/signin-portal/internal/interfaces"
	"github.com/bobmcallan/signin-portal/internal/storage/badger"
)

// NewStorageManager creates a new storage manager based on config.
func NewStorageManager(logger *common.Logger, cfg *config.Config) (interfaces.StorageManager, error) {
	return badger.NewManager(logger, &cfg.Storage.Badger)
}
