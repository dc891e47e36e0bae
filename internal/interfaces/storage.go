package interfaces

import (
	"context"

	"github.com/ternarybob/jobpilot/internal/models"
)

// StateStorage persists the profile, job list and recent logs as one blob
type StateStorage interface {
	// LoadState returns the stored state, or ErrKeyNotFound on first run
	LoadState(ctx context.Context) (*models.PersistedState, error)

	// SaveState writes the state, trimming logs to the most recent models.MaxPersistedLogs
	SaveState(ctx context.Context, state *models.PersistedState) error

	// ClearState removes the stored state
	ClearState(ctx context.Context) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	StateStorage() StateStorage

	// LoadKeys copies API keys from TOML files and a .env file in dir into the KV store
	LoadKeys(ctx context.Context, dir string) error

	Close() error
}
