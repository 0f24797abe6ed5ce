package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresInboxChecker implements DB-based inbox deduplication, the cold
// tier behind the engine's in-memory LRU.
type PostgresInboxChecker struct {
	db *sql.DB
}

func NewPostgresInboxChecker(db *sql.DB) *PostgresInboxChecker {
	return &PostgresInboxChecker{db: db}
}

// IsDuplicate checks whether the message was already processed.
func (pic *PostgresInboxChecker) IsDuplicate(channel string, messageID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var exists int
	err := pic.db.QueryRowContext(ctx, `
		SELECT 1
		FROM lotto.inbox_messages
		WHERE channel = $1 AND message_id = $2
		LIMIT 1
	`, channel, messageID).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordProcessed persists a processed message key. A concurrent replay of
// the same message is absorbed by the primary key.
func (pic *PostgresInboxChecker) RecordProcessed(ctx context.Context, channel, messageID, agentName string) error {
	_, err := pic.db.ExecContext(ctx, `
		INSERT INTO lotto.inbox_messages (channel, message_id, agent_name, processed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (channel, message_id) DO NOTHING
	`, channel, messageID, agentName)
	return err
}

// RecentKeys returns the newest composite keys ("channel:message_id") for
// warming the in-memory LRU on restart.
func (pic *PostgresInboxChecker) RecentKeys(ctx context.Context, limit int) ([]string, error) {
	rows, err := pic.db.QueryContext(ctx, `
		SELECT channel, message_id
		FROM lotto.inbox_messages
		ORDER BY processed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var channel, messageID string
		if err := rows.Scan(&channel, &messageID); err != nil {
			return nil, err
		}
		keys = append(keys, fmt.Sprintf("%s:%s", channel, messageID))
	}
	return keys, rows.Err()
}
