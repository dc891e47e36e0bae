package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
)

// ClaudeProvider generates content with the Anthropic Messages API
type ClaudeProvider struct {
	client anthropic.Client
	config *common.ClaudeConfig
	logger arbor.ILogger
}

// NewClaudeProvider creates an Anthropic client for apiKey
func NewClaudeProvider(apiKey string, config *common.ClaudeConfig, logger arbor.ILogger) *ClaudeProvider {
	return &ClaudeProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		config: config,
		logger: logger,
	}
}

// Name returns the provider name
func (p *ClaudeProvider) Name() string {
	return string(common.LLMProviderClaude)
}

// SupportsInlineData reports whether an attachment can be inlined as text.
// Binary documents must be converted to text by the caller.
func (p *ClaudeProvider) SupportsInlineData(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/")
}

// Generate performs one Messages.New call. The output schema, when present,
// is appended to the system prompt since the API does not enforce it.
func (p *ClaudeProvider) Generate(ctx context.Context, request *interfaces.LLMRequest) (string, error) {
	prompt := request.Prompt
	if len(request.InlineData) > 0 {
		if !p.SupportsInlineData(request.MimeType) {
			return "", fmt.Errorf("claude provider cannot accept %s attachments", request.MimeType)
		}
		prompt = prompt + "\n\n" + string(request.InlineData)
	}

	system := request.SystemInstruction
	if len(request.OutputSchema) > 0 {
		if schemaJSON, err := json.Marshal(request.OutputSchema); err == nil {
			system = strings.TrimSpace(system + "\n\nRespond only with JSON matching this schema:\n" + string(schemaJSON))
		}
	}

	maxTokens := p.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude generate: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}

// Close is a no-op; the SDK client holds no resources
func (p *ClaudeProvider) Close() error {
	return nil
}
