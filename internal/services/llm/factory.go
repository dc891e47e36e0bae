package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
)

// NewProvider creates the configured default provider.
// Returns an error wrapping ErrMissingAPIKey when no credential resolves.
func NewProvider(ctx context.Context, config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.LLMProvider, error) {
	name, fallback := config.ProviderKey()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, name, fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}

	switch config.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		logger.Info().Str("model", config.Claude.Model).Msg("Using Claude provider")
		return NewClaudeProvider(apiKey, &config.Claude, logger), nil
	case common.LLMProviderGemini, "":
		logger.Info().Str("model", config.Gemini.Model).Msg("Using Gemini provider")
		provider, err := NewGeminiProvider(ctx, apiKey, &config.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", config.LLM.DefaultProvider)
	}
}
