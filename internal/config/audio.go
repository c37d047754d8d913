package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/polychat/pkg/log"
)

// AudioConfig points at an OpenAI-compatible transcription endpoint, which
// may be a local whisper server.
type AudioConfig struct {
	BaseURL string `env:"WHISPER_BASE_URL" envDefault:"http://localhost:8000/v1"`
	APIKey  string `env:"WHISPER_API_KEY"`
	Model   string `env:"WHISPER_MODEL" envDefault:"whisper-1"`
}

func NewAudioConfig(ctx context.Context) *AudioConfig {
	c := &AudioConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse audio config")
	}
	return c
}
