package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"LottoLedger/internal/session"
	"LottoLedger/internal/settle"
	"LottoLedger/internal/state"
)

// Report is a named end-of-day archive of one workspace: the financial
// summary plus everything needed to rebuild the book, including the raw
// submission texts for replay.
type Report struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	SessionKey   string             `json:"sessionKey"`
	CreatedAt    time.Time          `json:"createdAt"`
	Summary      session.Summary    `json:"summary"`
	Settings     session.Settings   `json:"settings"`
	DefaultLimit float64            `json:"defaultLimit"`
	LimitGroups  []state.LimitGroup `json:"limitGroups"`
	RawInputs    []string           `json:"betHistory"`
	Agents       []settle.Agent     `json:"agents"`
	UpperBookies []settle.Agent     `json:"upperBookies"`
}

// ReportMeta is the listing row, without the archived payload.
type ReportMeta struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SessionKey string    `json:"sessionKey"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReportStore archives and retrieves end-of-day reports.
type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) SaveReport(ctx context.Context, report Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lotto.reports (report_id, session_key, name, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, report.ID, report.SessionKey, report.Name, data, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}
	return nil
}

// ListReports returns report metadata for a session key, newest first.
// An empty key lists reports across all sessions.
func (s *ReportStore) ListReports(ctx context.Context, sessionKey string) ([]ReportMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, name, session_key, created_at
		FROM lotto.reports
		WHERE $1 = '' OR session_key = $1
		ORDER BY created_at DESC
	`, sessionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ReportMeta
	for rows.Next() {
		var m ReportMeta
		if err := rows.Scan(&m.ID, &m.Name, &m.SessionKey, &m.CreatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// GetReport loads a full report. Found is false when no row exists.
func (s *ReportStore) GetReport(ctx context.Context, id uuid.UUID) (Report, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM lotto.reports WHERE report_id = $1
	`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return Report{}, false, nil
	}
	if err != nil {
		return Report{}, false, fmt.Errorf("load report %s: %w", id, err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, false, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return report, true, nil
}

func (s *ReportStore) DeleteReport(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM lotto.reports WHERE report_id = $1
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
