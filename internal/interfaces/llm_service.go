package interfaces

import (
	"context"
)

// LLMRequest is a provider-agnostic content generation request
type LLMRequest struct {
	// SystemInstruction frames the model's role for this call
	SystemInstruction string

	// Prompt is the user turn
	Prompt string

	// InlineData is an optional attachment (e.g. resume PDF bytes) sent with the prompt
	InlineData []byte
	MimeType   string

	// OutputSchema is a JSON schema for structured output. Providers that cannot
	// enforce it receive it as part of the prompt.
	OutputSchema map[string]interface{}

	Temperature float32
}

// LLMProvider generates text from one hosted model API
type LLMProvider interface {
	// Name identifies the provider in logs ("gemini", "claude")
	Name() string

	// Generate performs a single attempt. Retry and fallback live in the caller.
	Generate(ctx context.Context, request *LLMRequest) (string, error)

	// Close releases any client resources
	Close() error
}
