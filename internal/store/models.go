package store

import "time"

// ReportRecord is one archived report generation. Live conversation state is
// never written here; the archive only holds completed report artifacts.
type ReportRecord struct {
	ID             string    `json:"id"` // Using UUID for external ID
	SessionID      string    `json:"session_id"`
	MoodScore      int       `json:"mood_score"`
	SentimentScore int       `json:"sentiment_score"`
	ReportJSON     string    `json:"-"` // Full report entity as JSON, internal
	ExportText     string    `json:"-"` // Rendered text document, internal
	CreatedAt      time.Time `json:"created_at"`
}
