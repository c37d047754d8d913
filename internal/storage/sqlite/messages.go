package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/pkg/log"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

func (r *MessagesRepo) Append(ctx context.Context, sessionID string, sender core.Sender, kind core.Kind, text string, blob []byte) error {
	var err error
	if kind == core.KindText {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO messages (session_id, sender, kind, text_content) VALUES (?, ?, ?, ?)`,
			sessionID, sender, kind, text,
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO messages (session_id, sender, kind, blob_content) VALUES (?, ?, ?, ?)`,
			sessionID, sender, kind, blob,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// RecentText fetches the last k text messages by ordering DESC, then
// reverses them back to chronological order. Callers building model
// context depend on oldest-first ordering.
func (r *MessagesRepo) RecentText(ctx context.Context, sessionID string, k int) ([]core.StoredMessage, error) {
	query := `SELECT id, sender, text_content FROM messages
		WHERE session_id = ? AND kind = 'text'
		ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.StoredMessage
	for rows.Next() {
		msg := core.StoredMessage{SessionID: sessionID, Kind: core.KindText}
		var text sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Sender, &text); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Text = text.String
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded recent text messages")
	return messages, nil
}

func (r *MessagesRepo) All(ctx context.Context, sessionID string) ([]core.StoredMessage, error) {
	query := `SELECT id, sender, kind, text_content, blob_content FROM messages
		WHERE session_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.StoredMessage
	for rows.Next() {
		msg := core.StoredMessage{SessionID: sessionID}
		var text sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Kind, &text, &msg.Blob); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Text = text.String
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessagesRepo) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM messages ORDER BY session_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MessagesRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
