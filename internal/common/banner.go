package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("JobPilot", GetVersion())

	logger.Info().
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Str("llm_mode", string(config.LLM.Mode)).
		Str("badger_path", config.Storage.Badger.Path).
		Bool("scheduled_discovery", config.Discovery.Enabled).
		Msg("JobPilot starting")
}
