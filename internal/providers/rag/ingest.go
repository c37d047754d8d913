package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/internal/storage/sqlite"
	"github.com/sandevgo/polychat/pkg/log"
)

// NamedDocument is one uploaded PDF: the name carries the extension marker.
type NamedDocument struct {
	Name string
	Data []byte
}

// TextExtractor turns PDF bytes into plain text.
type TextExtractor interface {
	ExtractText(name string, data []byte) (string, error)
}

// Pipeline ingests PDF batches into the persistent chunk index.
type Pipeline struct {
	extractor TextExtractor
	embedder  core.Embedder
	index     core.ChunkIndex
	settings  core.SettingsRepository
}

func NewPipeline(extractor TextExtractor, embedder core.Embedder, index core.ChunkIndex, settings core.SettingsRepository) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		settings:  settings,
	}
}

// Ingest extracts, chunks, embeds and indexes a batch of PDFs, returning
// the number of chunks written. The whole batch is parsed before the
// first index write, so one malformed file aborts the batch instead of
// silently dropping documents parsed after it.
func (p *Pipeline) Ingest(ctx context.Context, docs []NamedDocument) (int, error) {
	logger := log.FromCtx(ctx)

	chunkSize, err := p.settings.GetInt(ctx, sqlite.SettingChunkSize, sqlite.DefaultChunkSize)
	if err != nil {
		return 0, err
	}
	chunkOverlap, err := p.settings.GetInt(ctx, sqlite.SettingChunkOverlap, sqlite.DefaultChunkOverlap)
	if err != nil {
		return 0, err
	}
	chunker, err := NewChunker(chunkSize, chunkOverlap)
	if err != nil {
		return 0, err
	}

	// Parse everything first. Index writes only start once the batch is
	// known to be clean.
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if !strings.EqualFold(strings.TrimPrefix(extension(doc.Name), "."), "pdf") {
			return 0, &core.DocumentParseError{Name: doc.Name, Err: fmt.Errorf("not a pdf file")}
		}
		text, err := p.extractor.ExtractText(doc.Name, doc.Data)
		if err != nil {
			return 0, err
		}
		texts = append(texts, text)
	}

	// Whitespace-only chunks carry no retrievable content; pages with no
	// extractable text would otherwise index their joining newlines.
	var chunks []core.Chunk
	for _, text := range texts {
		for _, chunk := range chunker.Split(text) {
			if strings.TrimSpace(chunk.Text) == "" {
				continue
			}
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 0 {
		logger.Info().Int("documents", len(docs)).Msg("no extractable text in batch")
		return 0, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk: %w", err)
		}
		vectors = append(vectors, vec)
	}

	if err := p.index.AddChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to index chunks: %w", err)
	}

	logger.Info().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Msg("documents added to index")
	return len(chunks), nil
}

func extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
