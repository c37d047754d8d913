package core

import "context"

// ChatProvider is the uniform surface over heterogeneous chat-completion
// backends. Implementations translate the shared history shape into their
// own wire format and map provider error envelopes into *BackendError.
// All calls block until the full completion is available; streaming is out
// of scope.
type ChatProvider interface {
	// Chat sends the history and returns the assistant's text.
	Chat(ctx context.Context, model string, history []Message) (string, error)
	// ImageChat sends one image-augmented user turn. Encoding of the image
	// is provider-specific and hidden behind this call.
	ImageChat(ctx context.Context, model, text string, history []Message, image []byte) (string, error)
	// Models lists models available on the backend.
	Models(ctx context.Context) ([]Model, error)
}

// ModelPuller is implemented by backends that can acquire models on demand.
type ModelPuller interface {
	Pull(ctx context.Context, model string) error
}

// Embedder converts text into a vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns up to k indexed chunks most similar to the query,
// best match first. An empty index yields an empty slice, not an error.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]Chunk, error)
}

// Transcriber converts raw audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
