package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/polychat/pkg/log"
)

type ProviderConfig struct {
	// Initial backend selection; switchable at runtime via /model.
	Provider string `env:"LLM_PROVIDER" envDefault:"ollama"`
	Model    string `env:"LLM_MODEL"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey  string `env:"OLLAMA_API_KEY"`

	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`

	// Embeddings are served by ollama regardless of the chat backend.
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
}

func NewProviderConfig(ctx context.Context) *ProviderConfig {
	c := &ProviderConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse provider config")
	}
	return c
}
