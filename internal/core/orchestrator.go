package core

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mindhaven/companion/internal/llm"
	"github.com/mindhaven/companion/internal/report"
)

const (
	greetingText = "Hi, I'm glad you're here. How are you feeling today?"
	apologyText  = "I'm sorry, I'm having trouble responding right now. Could you try sending that again?"

	chatErrText   = "Something went wrong while generating a reply. Please try again."
	reportErrText = "The report could not be fully generated. A partial report is available."

	defaultCallTimeout = 60 * time.Second
)

var (
	// ErrEmptyMessage rejects blank input before any state changes.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy serializes overlapping calls of the same kind: a second chat
	// turn (or report request) while one is in flight is rejected rather
	// than raced.
	ErrBusy = errors.New("a response is already being generated")
	// ErrNoReport means no generation attempt has completed yet.
	ErrNoReport = errors.New("no report has been generated")
)

// OrchestratorConfig carries per-session tuning.
type OrchestratorConfig struct {
	GreetingDelay time.Duration // 0 appends the greeting synchronously
	CallTimeout   time.Duration
}

// Orchestrator owns the state of one conversation session and sequences
// prompt building, the inference call, and response parsing. Every state
// transition happens under one mutex; the inference call is the only point
// where an operation releases the lock mid-flight. Transcript snapshots for
// prompt building are taken under the lock after the optimistic append, so a
// call always sees its own write.
type Orchestrator struct {
	client llm.Client
	now    func() time.Time
	cfg    OrchestratorConfig

	mu                 sync.Mutex
	started            bool
	messages           []Message
	isLoading          bool
	isReportGenerating bool
	currentReport      *report.Report
	lastError          string
}

func NewOrchestrator(client llm.Client, cfg OrchestratorConfig) *Orchestrator {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Orchestrator{
		client: client,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Start schedules the one-time bot greeting. The delay models a typing
// affordance; repeated calls have no further effect.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	if o.cfg.GreetingDelay <= 0 {
		o.appendGreeting()
		return
	}
	time.AfterFunc(o.cfg.GreetingDelay, o.appendGreeting)
}

func (o *Orchestrator) appendGreeting() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appendLocked(SenderBot, greetingText)
}

// SendMessage appends the user message, asks the backend for a reply, and
// appends the bot response. The user message is visible in the transcript
// before any network I/O. On backend failure the error surfaces twice: as a
// bot-authored apology message and as the banner error. The returned message
// is the bot's turn, apology included; it is never an error for the backend
// to fail.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	o.mu.Lock()
	if o.isLoading {
		o.mu.Unlock()
		return Message{}, ErrBusy
	}
	o.appendLocked(SenderUser, text)
	o.isLoading = true
	o.lastError = ""
	turns, instruction := ChatPrompt(o.messages)
	o.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	reply, err := o.client.Generate(callCtx, turns, instruction, false)
	cancel()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.isLoading = false
	if err != nil {
		log.Printf("Chat completion failed: %v", err)
		o.lastError = chatErrText
		return o.appendLocked(SenderBot, apologyText), nil
	}
	return o.appendLocked(SenderBot, CleanChatReply(reply)), nil
}

// GenerateReport asks the backend for the structured well-being report.
// After a completed attempt the current report is never absent: transport and
// parse failures both install the degraded placeholder and set the banner
// error. A new report wholly replaces the previous one.
func (o *Orchestrator) GenerateReport(ctx context.Context) (*report.Report, error) {
	o.mu.Lock()
	if o.isReportGenerating {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.isReportGenerating = true
	o.lastError = ""
	turns, instruction := ReportPrompt(o.messages)
	o.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	raw, err := o.client.Generate(callCtx, turns, instruction, true)
	cancel()

	var rep *report.Report
	if err != nil {
		log.Printf("Report generation failed: %v", err)
		rep = report.Fallback(o.now())
	} else {
		var parseErr error
		rep, parseErr = ParseReport(raw, o.now())
		if parseErr != nil {
			log.Printf("Report parsing failed: %v", parseErr)
			err = parseErr
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.isReportGenerating = false
	o.currentReport = rep
	if err != nil {
		o.lastError = reportErrText
	}
	return rep, nil
}

// ClearError resets the banner error. No other side effects.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastError = ""
}

// CurrentReport returns the report from the last completed generation
// attempt.
func (o *Orchestrator) CurrentReport() (*report.Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.currentReport == nil {
		return nil, ErrNoReport
	}
	return o.currentReport, nil
}

// State returns a copy of the session state for rendering.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := make([]Message, len(o.messages))
	copy(msgs, o.messages)
	return State{
		Messages:           msgs,
		IsLoading:          o.isLoading,
		IsReportGenerating: o.isReportGenerating,
		CurrentReport:      o.currentReport,
		LastError:          o.lastError,
	}
}

func (o *Orchestrator) appendLocked(sender Sender, content string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: o.now(),
	}
	o.messages = append(o.messages, msg)
	return msg
}
