package core

import "context"

// MessagesRepository is the append-only conversation store. Appends are
// durable before the call returns. Within a session appends are serialized
// by the underlying store; deletion racing an append is last-writer-wins.
type MessagesRepository interface {
	Append(ctx context.Context, sessionID string, sender Sender, kind Kind, text string, blob []byte) error
	// RecentText returns the last k text-kind messages in chronological
	// order, oldest first. Image and audio messages are skipped.
	RecentText(ctx context.Context, sessionID string, k int) ([]StoredMessage, error)
	// All returns every message of the session, oldest first.
	All(ctx context.Context, sessionID string) ([]StoredMessage, error)
	ListSessions(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
}

// SettingsRepository is a durable name/value store with upsert semantics.
// Reading a missing key inserts and returns the supplied default.
type SettingsRepository interface {
	Get(ctx context.Context, name, defaultValue string) (string, error)
	GetInt(ctx context.Context, name string, defaultValue int) (int, error)
	Set(ctx context.Context, name, value string) error
}

// ChunkIndex is the persistent, additive-only vector index populated by
// ingestion. There is no update or delete path for individual chunks.
type ChunkIndex interface {
	AddChunks(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	// AllVectors streams every stored chunk with its embedding for
	// similarity scanning.
	AllVectors(ctx context.Context) ([]Chunk, [][]float32, error)
	Count(ctx context.Context) (int, error)
}
