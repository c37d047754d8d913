package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/polychat/internal/core"
)

// ChunksRepo is the persistent vector index. Writes are additive only;
// there is no update or delete path for individual chunks.
type ChunksRepo struct {
	db *sql.DB
}

func NewChunksRepo(db *sql.DB) *ChunksRepo {
	return &ChunksRepo{db: db}
}

// AddChunks writes a batch of chunks and their embeddings in one
// transaction, so an ingestion batch becomes visible as a unit.
func (r *ChunksRepo) AddChunks(ctx context.Context, chunks []core.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (text_content, token_size, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		blob, err := serializeVector(vectors[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, chunk.Text, chunk.TokenSize, blob); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

func (r *ChunksRepo) AllVectors(ctx context.Context) ([]core.Chunk, [][]float32, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text_content, token_size, embedding FROM chunks ORDER BY id ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []core.Chunk
	var vectors [][]float32
	for rows.Next() {
		var chunk core.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Text, &chunk.TokenSize, &blob); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		vec, err := deserializeVector(blob)
		if err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, chunk)
		vectors = append(vectors, vec)
	}
	return chunks, vectors, rows.Err()
}

func (r *ChunksRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
