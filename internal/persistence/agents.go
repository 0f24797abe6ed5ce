package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"LottoLedger/internal/settle"
)

// AgentStore manages the agent roster. Names are unique case-insensitively;
// the stored casing is whatever was first registered.
type AgentStore struct {
	db    *sql.DB
	table string
}

func NewAgentStore(db *sql.DB) *AgentStore {
	return &AgentStore{db: db, table: "lotto.agents"}
}

// NewUpperBookieStore manages upstream bookie contacts, same shape as agents.
func NewUpperBookieStore(db *sql.DB) *AgentStore {
	return &AgentStore{db: db, table: "lotto.upper_bookies"}
}

func (s *AgentStore) ListAgents() ([]settle.Agent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT name, commission FROM %s ORDER BY created_at, name
	`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []settle.Agent
	for rows.Next() {
		var a settle.Agent
		if err := rows.Scan(&a.Name, &a.Commission); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// EnsureAgent registers the agent if no case-insensitive match exists and
// reports whether a row was created. An existing agent's commission is left
// alone.
func (s *AgentStore) EnsureAgent(agent settle.Agent) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, commission, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (LOWER(name)) DO NOTHING
	`, s.table), agent.Name, agent.Commission, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveAgent upserts name and commission.
func (s *AgentStore) SaveAgent(agent settle.Agent) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, commission, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (LOWER(name)) DO UPDATE SET name = $1, commission = $2
	`, s.table), agent.Name, agent.Commission, time.Now().UTC())
	return err
}

// DeleteAgent removes an agent by case-insensitive name match. Reports
// whether a row was deleted.
func (s *AgentStore) DeleteAgent(name string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE LOWER(name) = LOWER($1)
	`, s.table), name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
