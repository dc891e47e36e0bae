package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// keyFileEntry is one section of a keys TOML file:
//
//	[gemini_api_key]
//	value = "..."
//	description = "optional"
type keyFileEntry struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// LoadKeys loads every *.toml file in dir into the KV store, then the dir's .env file.
// A missing directory is not an error; unreadable files are logged and skipped.
func (m *Manager) LoadKeys(ctx context.Context, dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		m.logger.Debug().Str("dir", dir).Msg("Keys directory not found, skipping")
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to read keys directory")
		return nil
	}

	loaded, skipped, failed := 0, 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		l, s, f := m.loadKeyFile(ctx, filepath.Join(dir, entry.Name()))
		loaded += l
		skipped += s
		failed += f
	}

	m.logger.Debug().
		Str("dir", dir).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Int("errors", failed).
		Msg("Finished loading keys")

	return m.LoadEnvFile(ctx, filepath.Join(dir, ".env"))
}

func (m *Manager) loadKeyFile(ctx context.Context, path string) (loaded, skipped, failed int) {
	content, err := os.ReadFile(path)
	if err != nil {
		m.logger.Warn().Err(err).Str("file", path).Msg("Failed to read key file")
		return 0, 0, 1
	}

	var keys map[string]keyFileEntry
	if err := toml.Unmarshal(content, &keys); err != nil {
		m.logger.Warn().Err(err).Str("file", path).Msg("Failed to parse key file")
		return 0, 0, 1
	}

	fileName := filepath.Base(path)
	for name, entry := range keys {
		if entry.Value == "" {
			m.logger.Warn().Str("file", fileName).Str("key", name).Msg("Skipping key with empty value")
			skipped++
			continue
		}
		description := entry.Description
		if description == "" {
			description = "Loaded from " + fileName
		}
		if err := m.kv.Set(ctx, name, entry.Value, description); err != nil {
			m.logger.Error().Err(err).Str("key", name).Msg("Failed to store key")
			failed++
			continue
		}
		loaded++
	}
	return loaded, skipped, failed
}
