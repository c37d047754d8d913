package audio

import (
	"bytes"
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandevgo/polychat/internal/config"
	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/pkg/log"
)

// Transcriber converts recorded audio into text through any server that
// speaks the OpenAI transcription API, typically a local whisper server.
type Transcriber struct {
	client *openai.Client
	model  string
}

func NewTranscriber(cfg *config.AudioConfig) *Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &Transcriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Transcribe returns the full transcript or a *core.TranscriptionError.
// There is no partial transcript on failure.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "recording.wav",
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", &core.TranscriptionError{Err: err}
	}

	log.FromCtx(ctx).Debug().Int("bytes", len(audio)).Msg("transcribed audio")
	return resp.Text, nil
}
