package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindhaven/companion/internal/llm"
)

type stubCall struct {
	turns       []llm.Turn
	instruction string
	structured  bool
}

// stubClient is a deterministic inference backend. When blockChat is set,
// chat-mode calls wait until the channel is closed; structured calls always
// proceed.
type stubClient struct {
	mu        sync.Mutex
	reply     string
	err       error
	calls     []stubCall
	blockChat chan struct{}
}

func (s *stubClient) Generate(_ context.Context, turns []llm.Turn, instruction string, structured bool) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, stubCall{turns: turns, instruction: instruction, structured: structured})
	block := s.blockChat
	reply, err := s.reply, s.err
	s.mu.Unlock()

	if block != nil && !structured {
		<-block
	}
	return reply, err
}

func (s *stubClient) lastCall() stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestOrchestrator(client llm.Client) *Orchestrator {
	return NewOrchestrator(client, OrchestratorConfig{GreetingDelay: 0})
}

func TestStartGreetsExactlyOnce(t *testing.T) {
	o := newTestOrchestrator(&stubClient{})

	o.Start()
	o.Start()

	state := o.State()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, SenderBot, state.Messages[0].Sender)
	assert.NotEmpty(t, state.Messages[0].Content)
}

func TestStartDelayedGreeting(t *testing.T) {
	o := NewOrchestrator(&stubClient{}, OrchestratorConfig{GreetingDelay: 10 * time.Millisecond})

	o.Start()
	assert.Empty(t, o.State().Messages)

	require.Eventually(t, func() bool {
		return len(o.State().Messages) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSendMessageAppendsUserAndBotTurn(t *testing.T) {
	client := &stubClient{reply: "That sounds hard. What's been on your mind?"}
	o := newTestOrchestrator(client)

	botMsg, err := o.SendMessage(context.Background(), "I feel anxious")
	require.NoError(t, err)

	state := o.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, SenderUser, state.Messages[0].Sender)
	assert.Equal(t, "I feel anxious", state.Messages[0].Content)
	assert.Equal(t, SenderBot, state.Messages[1].Sender)
	assert.Equal(t, "That sounds hard. What's been on your mind?", state.Messages[1].Content)
	assert.Equal(t, state.Messages[1].ID, botMsg.ID)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.LastError)
}

func TestSendMessageRejectsBlankInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace only", text: "   "},
		{name: "tabs and newlines", text: "\t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{reply: "should never be called"}
			o := newTestOrchestrator(client)

			_, err := o.SendMessage(context.Background(), tt.text)
			require.ErrorIs(t, err, ErrEmptyMessage)

			state := o.State()
			assert.Empty(t, state.Messages)
			assert.False(t, state.IsLoading)
			assert.Zero(t, client.callCount())
		})
	}
}

func TestSendMessageBackendFailure(t *testing.T) {
	client := &stubClient{err: errors.New("connection reset")}
	o := newTestOrchestrator(client)

	botMsg, err := o.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, SenderBot, botMsg.Sender)
	assert.Equal(t, apologyText, botMsg.Content)

	state := o.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, apologyText, state.Messages[1].Content)
	assert.NotEmpty(t, state.LastError)
	assert.False(t, state.IsLoading)
}

func TestSendMessageSerializedWhileInFlight(t *testing.T) {
	client := &stubClient{reply: "ok", blockChat: make(chan struct{})}
	o := newTestOrchestrator(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := o.SendMessage(context.Background(), "first")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		return o.State().IsLoading
	}, time.Second, time.Millisecond)

	_, err := o.SendMessage(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)

	close(client.blockChat)
	<-done

	state := o.State()
	assert.False(t, state.IsLoading)
	require.Len(t, state.Messages, 2) // "second" was rejected, not queued
	assert.Equal(t, "first", state.Messages[0].Content)
}

func TestSendMessagePromptSeesLatestAppend(t *testing.T) {
	client := &stubClient{reply: "reply one"}
	o := newTestOrchestrator(client)
	o.Start()

	_, err := o.SendMessage(context.Background(), "first message")
	require.NoError(t, err)

	call := client.lastCall()
	require.Len(t, call.turns, 2) // greeting + just-appended user message
	assert.Equal(t, llm.RoleUser, call.turns[1].Role)
	assert.Equal(t, "first message", call.turns[1].Content)
	assert.False(t, call.structured)

	client.reply = "reply two"
	_, err = o.SendMessage(context.Background(), "second message")
	require.NoError(t, err)

	call = client.lastCall()
	require.Len(t, call.turns, 4)
	assert.Equal(t, "second message", call.turns[3].Content)
}

func TestSendMessageStripsReplyArtifacts(t *testing.T) {
	client := &stubClient{reply: "  Assistant: You are not alone in this.  "}
	o := newTestOrchestrator(client)

	botMsg, err := o.SendMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "You are not alone in this.", botMsg.Content)
}

func TestGenerateReportSuccess(t *testing.T) {
	client := &stubClient{reply: `{
		"observedPatterns": ["frequent worry about work"],
		"tentativeConditions": ["generalized anxiety"],
		"moodScore": 4,
		"sentimentScore": 3,
		"keyQuotes": ["I feel anxious"],
		"recommendations": ["Try a short daily walk"],
		"analysisDate": "2025-06-01T10:00:00Z"
	}`}
	o := newTestOrchestrator(client)

	_, err := o.SendMessage(context.Background(), "I feel anxious")
	require.NoError(t, err)

	rep, err := o.GenerateReport(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, []string{"frequent worry about work"}, rep.ObservedPatterns)
	assert.Equal(t, 4, rep.MoodScore)
	assert.Equal(t, 3, rep.SentimentScore)
	assert.Equal(t, []string{"I feel anxious"}, rep.KeyQuotes)

	call := client.lastCall()
	assert.True(t, call.structured)

	state := o.State()
	assert.False(t, state.IsReportGenerating)
	assert.Same(t, rep, state.CurrentReport)
	assert.Empty(t, state.LastError)
}

func TestGenerateReportTransportFailure(t *testing.T) {
	client := &stubClient{err: errors.New("503 from provider")}
	o := newTestOrchestrator(client)

	rep, err := o.GenerateReport(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, 5, rep.MoodScore)
	assert.Equal(t, 5, rep.SentimentScore)
	assert.Empty(t, rep.KeyQuotes)
	require.Len(t, rep.Recommendations, 1)

	state := o.State()
	assert.NotNil(t, state.CurrentReport)
	assert.NotEmpty(t, state.LastError)
	assert.False(t, state.IsReportGenerating)
}

func TestGenerateReportParseFailure(t *testing.T) {
	client := &stubClient{reply: "I'd rather chat than produce JSON."}
	o := newTestOrchestrator(client)

	rep, err := o.GenerateReport(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, 5, rep.MoodScore)
	assert.Equal(t, 5, rep.SentimentScore)
	assert.NotEmpty(t, o.State().LastError)
}

func TestGenerateReportReplacesPreviousWholly(t *testing.T) {
	client := &stubClient{reply: `{"observedPatterns":["a"],"tentativeConditions":[],"moodScore":7,"sentimentScore":7,"keyQuotes":[],"recommendations":[],"analysisDate":"2025-06-01T10:00:00Z"}`}
	o := newTestOrchestrator(client)

	first, err := o.GenerateReport(context.Background())
	require.NoError(t, err)

	client.mu.Lock()
	client.reply = `{"observedPatterns":["b"],"tentativeConditions":[],"moodScore":2,"sentimentScore":2,"keyQuotes":[],"recommendations":[],"analysisDate":"2025-06-02T10:00:00Z"}`
	client.mu.Unlock()

	second, err := o.GenerateReport(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, []string{"b"}, second.ObservedPatterns)
	assert.Same(t, second, o.State().CurrentReport)
}

func TestReportAllowedWhileChatInFlight(t *testing.T) {
	client := &stubClient{
		reply:     `{"observedPatterns":[],"tentativeConditions":[],"moodScore":6,"sentimentScore":6,"keyQuotes":[],"recommendations":[],"analysisDate":"2025-06-01T10:00:00Z"}`,
		blockChat: make(chan struct{}),
	}
	o := newTestOrchestrator(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := o.SendMessage(context.Background(), "still thinking")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		return o.State().IsLoading
	}, time.Second, time.Millisecond)

	rep, err := o.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, rep.MoodScore)
	assert.True(t, o.State().IsLoading) // the chat call is still in flight

	close(client.blockChat)
	<-done
	assert.False(t, o.State().IsLoading)
}

func TestClearError(t *testing.T) {
	client := &stubClient{err: errors.New("boom")}
	o := newTestOrchestrator(client)

	_, err := o.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.NotEmpty(t, o.State().LastError)

	before := len(o.State().Messages)
	o.ClearError()

	state := o.State()
	assert.Empty(t, state.LastError)
	assert.Len(t, state.Messages, before) // no other side effects
}

func TestCurrentReportBeforeGeneration(t *testing.T) {
	o := newTestOrchestrator(&stubClient{})

	_, err := o.CurrentReport()
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestTimestampsNonDecreasing(t *testing.T) {
	client := &stubClient{reply: "ok"}
	o := newTestOrchestrator(client)
	o.Start()

	for _, text := range []string{"one", "two", "three"} {
		_, err := o.SendMessage(context.Background(), text)
		require.NoError(t, err)
	}

	msgs := o.State().Messages
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
		assert.NotEqual(t, msgs[i-1].ID, msgs[i].ID)
	}
}
