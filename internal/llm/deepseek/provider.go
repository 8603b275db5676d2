package deepseek

import (
	"github.com/Rrens/kb-assistant/internal/llm"
	"github.com/Rrens/kb-assistant/internal/llm/openai"
)

const baseURL = "https://api.deepseek.com/v1"

// NewProvider creates a new DeepSeek provider. DeepSeek speaks the OpenAI
// chat completions protocol.
func NewProvider(apiKey, defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	return openai.NewCompatibleProvider(openai.Options{
		Name:         "deepseek",
		APIKey:       apiKey,
		DefaultModel: defaultModel,
		BaseURL:      baseURL,
		Models:       []string{"deepseek-chat", "deepseek-reasoner"},
	})
}
