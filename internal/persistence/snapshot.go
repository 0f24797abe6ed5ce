package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"LottoLedger/internal/session"
)

const queryTimeout = 2 * time.Second

// SnapshotStore reads and writes workspace snapshots, one JSON row per
// session key. It satisfies session.SnapshotLoader.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveSnapshot upserts the snapshot for a session key.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, key string, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lotto.session_snapshots (session_key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_key) DO UPDATE SET data = $2, updated_at = NOW()
	`, key, data)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot for a key. Found is false on a
// cold start with no row.
func (s *SnapshotStore) LoadSnapshot(key string) (session.Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM lotto.session_snapshots WHERE session_key = $1
	`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return session.Snapshot{}, false, nil
	}
	if err != nil {
		return session.Snapshot{}, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return session.Snapshot{}, false, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return snap, true, nil
}

// ListKeys returns every session key with a stored snapshot.
func (s *SnapshotStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_key FROM lotto.session_snapshots ORDER BY session_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
