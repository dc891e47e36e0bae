package badger

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
)

const envFileDescription = "Loaded from .env file"

// parseEnvLine splits one .env line into a lowercased key and its value.
// Accepts an optional "export " prefix, strips matching quotes and drops a trailing
// " #comment" on unquoted values. ok is false for blanks, comments and malformed lines.
func parseEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	k, v, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(k))
	value = strings.TrimSpace(v)
	if key == "" {
		return "", "", false
	}

	if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0] {
		return key, value[1 : n-1], true
	}
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return key, value, true
}

// LoadEnvFile copies KEY=value lines into the KV store so GEMINI_API_KEY lands
// where ResolveAPIKey looks. A missing file is not an error; empty values are skipped.
func (m *Manager) LoadEnvFile(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Debug().Str("file", filePath).Msg("No .env file, skipping")
		return nil
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to open .env file")
		return nil
	}
	defer file.Close()

	loaded, skipped := 0, 0
	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if value == "" {
			m.logger.Warn().Str("file", filePath).Int("line", lineNum).Str("key", key).Msg("Skipping empty .env value")
			skipped++
			continue
		}
		if err := m.kv.Set(ctx, key, value, envFileDescription); err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("Failed to store .env value")
			skipped++
			continue
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Error reading .env file")
	}

	m.logger.Debug().
		Str("file", filePath).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("Loaded .env file")
	return nil
}
