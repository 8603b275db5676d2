package qianwen

import (
	"github.com/Rrens/kb-assistant/internal/llm"
	"github.com/Rrens/kb-assistant/internal/llm/openai"
)

const defaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// NewProvider creates a Qwen provider on DashScope's OpenAI-compatible mode
func NewProvider(apiKey, defaultModel, baseURL string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "qwen-max"
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return openai.NewCompatibleProvider(openai.Options{
		Name:         "qianwen",
		APIKey:       apiKey,
		DefaultModel: defaultModel,
		BaseURL:      baseURL,
		Models:       []string{"qwen-max", "qwen-plus", "qwen-turbo"},
	})
}
