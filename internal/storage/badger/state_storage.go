package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

// StateKey is the KV key holding the serialised workspace
const StateKey = "jobpilot_state"

// StateStorage stores models.PersistedState as one JSON value in the KV store
type StateStorage struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewStateStorage creates a StateStorage over any KeyValueStorage
func NewStateStorage(kv interfaces.KeyValueStorage, logger arbor.ILogger) *StateStorage {
	return &StateStorage{kv: kv, logger: logger}
}

// LoadState reads and decodes the stored blob. Migration is left to the caller.
func (s *StateStorage) LoadState(ctx context.Context) (*models.PersistedState, error) {
	raw, err := s.kv.Get(ctx, StateKey)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			return nil, interfaces.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state models.PersistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	s.logger.Debug().
		Int("version", state.Version).
		Int("jobs", len(state.Jobs)).
		Int("logs", len(state.Logs)).
		Msg("Loaded persisted state")

	return &state, nil
}

// SaveState writes a copy of state with logs trimmed to the most recent MaxPersistedLogs.
// The caller's slice is left untouched.
func (s *StateStorage) SaveState(ctx context.Context, state *models.PersistedState) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}

	out := *state
	out.Version = models.CurrentStateVersion
	out.Logs = models.TrimLogs(state.Logs, models.MaxPersistedLogs)
	if out.Jobs == nil {
		out.Jobs = []models.JobListing{}
	}
	if out.SavedAt.IsZero() {
		out.SavedAt = time.Now().UTC()
	}

	data, err := json.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := s.kv.Set(ctx, StateKey, string(data), "JobPilot workspace (profile, jobs, recent logs)"); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// ClearState removes the stored blob. Clearing an absent state is not an error.
func (s *StateStorage) ClearState(ctx context.Context) error {
	if err := s.kv.Delete(ctx, StateKey); err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}
