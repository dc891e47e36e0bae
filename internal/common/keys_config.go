package common

// KeysDirConfig points at a directory of API key files loaded into the KV store at startup.
// Each *.toml file holds [key_name] sections with a value and optional description;
// a .env file in the same directory is read as KEY=value lines.
type KeysDirConfig struct {
	Dir string `toml:"dir"` // default: ./keys
}
