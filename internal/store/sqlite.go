package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mindhaven/companion/internal/report"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS reports (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        mood_score INTEGER NOT NULL,
        sentiment_score INTEGER NOT NULL,
        report_json TEXT NOT NULL,
        export_text TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_reports_session ON reports (session_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// SaveReport archives one completed report generation.
func (s *SQLiteStore) SaveReport(sessionID string, rep *report.Report, exportText string) error {
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	stmt, err := s.db.Prepare("INSERT INTO reports (id, session_id, mood_score, sentiment_score, report_json, export_text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare report insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(uuid.NewString(), sessionID, rep.MoodScore, rep.SentimentScore, string(reportJSON), exportText, time.Now())
	if err != nil {
		return fmt.Errorf("failed to execute report insert: %w", err)
	}
	return nil
}

// ListReportsBySession returns the archived generations for a session, newest
// first.
func (s *SQLiteStore) ListReportsBySession(sessionID string) ([]ReportRecord, error) {
	rows, err := s.db.Query("SELECT id, session_id, mood_score, sentiment_score, report_json, export_text, created_at FROM reports WHERE session_id = ? ORDER BY created_at DESC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var records []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.MoodScore, &rec.SentimentScore, &rec.ReportJSON, &rec.ExportText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetReport fetches one archived generation by id.
func (s *SQLiteStore) GetReport(id string) (*ReportRecord, error) {
	var rec ReportRecord
	err := s.db.QueryRow("SELECT id, session_id, mood_score, sentiment_score, report_json, export_text, created_at FROM reports WHERE id = ?", id).
		Scan(&rec.ID, &rec.SessionID, &rec.MoodScore, &rec.SentimentScore, &rec.ReportJSON, &rec.ExportText, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rec, nil
}
