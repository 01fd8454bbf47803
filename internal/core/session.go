package core

import (
	"time"

	"github.com/mindhaven/companion/internal/report"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one conversational turn. The transcript is append-only and
// ordered by creation; a message is never mutated or removed once created.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a point-in-time copy of a conversation session, shaped for the
// presentation layer to render from.
type State struct {
	Messages           []Message      `json:"messages"`
	IsLoading          bool           `json:"is_loading"`
	IsReportGenerating bool           `json:"is_report_generating"`
	CurrentReport      *report.Report `json:"current_report,omitempty"`
	LastError          string         `json:"last_error,omitempty"`
}
