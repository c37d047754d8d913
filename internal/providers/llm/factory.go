package llm

import (
	"fmt"

	"github.com/sandevgo/polychat/internal/config"
	"github.com/sandevgo/polychat/internal/core"
)

// NewProvider creates the adapter for one backend by identifier.
func NewProvider(name string, cfg *config.ProviderConfig) (core.ChatProvider, error) {
	switch name {
	case ProviderOllama:
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
}
