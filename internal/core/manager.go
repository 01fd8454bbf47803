package core

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/mindhaven/companion/internal/llm"
	"github.com/mindhaven/companion/internal/report"
)

var ErrSessionNotFound = errors.New("session not found")

// Archiver records completed report generations. Implementations must be
// safe for concurrent use.
type Archiver interface {
	SaveReport(sessionID string, rep *report.Report, exportText string) error
}

// Manager hosts the live conversation sessions. Sessions are process-local
// and never persisted: a restart loses them. Only generated report artifacts
// leave the process, through the archiver and the optional export saver.
type Manager struct {
	client   llm.Client
	archiver Archiver     // optional
	saver    report.Saver // optional
	cfg      OrchestratorConfig

	mu       sync.RWMutex
	sessions map[string]*Orchestrator
}

func NewManager(client llm.Client, archiver Archiver, saver report.Saver, cfg OrchestratorConfig) *Manager {
	return &Manager{
		client:   client,
		archiver: archiver,
		saver:    saver,
		cfg:      cfg,
		sessions: make(map[string]*Orchestrator),
	}
}

// CreateSession starts a new conversation and schedules its greeting.
func (m *Manager) CreateSession() string {
	id := uuid.NewString()
	o := NewOrchestrator(m.client, m.cfg)

	m.mu.Lock()
	m.sessions[id] = o
	m.mu.Unlock()

	o.Start()
	return id
}

// Session looks up a live session by id.
func (m *Manager) Session(id string) (*Orchestrator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.sessions[id]
	return o, ok
}

// GenerateReport runs report synthesis for the session and records the
// completed artifact. Archive and export failures are logged, never
// propagated: the report itself has already settled.
func (m *Manager) GenerateReport(ctx context.Context, sessionID string) (*report.Report, error) {
	o, ok := m.Session(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	rep, err := o.GenerateReport(ctx)
	if err != nil {
		return nil, err
	}

	if m.archiver != nil {
		if aerr := m.archiver.SaveReport(sessionID, rep, report.Format(rep)); aerr != nil {
			log.Printf("Failed to archive report for session %s: %v", sessionID, aerr)
		}
	}
	if m.saver != nil {
		if serr := report.Export(rep, m.saver); serr != nil {
			log.Printf("Failed to export report for session %s: %v", sessionID, serr)
		}
	}
	return rep, nil
}
