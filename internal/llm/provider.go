package llm

import "context"

// CompletionRequest is a single system + user exchange
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Response contains LLM completion result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete runs a chat completion and returns the raw model text
	Complete(ctx context.Context, req CompletionRequest, model string) (*Response, error)
}

// Completer is the narrow completion contract used by the workflows
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
