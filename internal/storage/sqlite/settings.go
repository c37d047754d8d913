package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting names with their process-wide defaults.
const (
	SettingChatMemoryLength   = "chat_memory_length"
	SettingRetrievedDocuments = "retrieved_documents"
	SettingChunkSize          = "chunk_size"
	SettingChunkOverlap       = "chunk_overlap"

	DefaultChatMemoryLength   = 2
	DefaultRetrievedDocuments = 3
	DefaultChunkSize          = 2000
	DefaultChunkOverlap       = 50
)

type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the stored value, inserting the default on first read of a
// missing key.
func (r *SettingsRepo) Get(ctx context.Context, name, defaultValue string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to read setting %s: %w", name, err)
	}

	if err := r.Set(ctx, name, defaultValue); err != nil {
		return "", err
	}
	return defaultValue, nil
}

func (r *SettingsRepo) GetInt(ctx context.Context, name string, defaultValue int) (int, error) {
	value, err := r.Get(ctx, name, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not an integer: %w", name, err)
	}
	return n, nil
}

func (r *SettingsRepo) Set(ctx context.Context, name, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", name, err)
	}
	return nil
}
