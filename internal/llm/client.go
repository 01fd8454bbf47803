package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role tags the author of a conversational turn sent to a backend.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one role-tagged unit of conversational text.
type Turn struct {
	Role    Role
	Content string
}

// Client abstracts a hosted text-generation backend. structured signals that
// the caller expects a machine-parseable JSON object and the backend should
// bias toward deterministic, low-temperature output.
//
// Generate always returns either a non-empty string or an error, never both
// absent: adapters substitute a canned reply for empty-but-successful chat
// responses instead of propagating them.
type Client interface {
	Generate(ctx context.Context, turns []Turn, instruction string, structured bool) (string, error)
}

// Failure taxonomy. Adapters wrap provider errors with one of these so
// callers can treat every backend uniformly.
var (
	ErrTransport         = errors.New("llm: transport failure")
	ErrMalformedResponse = errors.New("llm: malformed response")
	ErrContentRejected   = errors.New("llm: content rejected by provider")
)

// cannedReply is the last-resort substitution when a chat call succeeds but
// yields no usable text.
const cannedReply = "I'm sorry, I couldn't come up with a response just now. Please try again."

// Options selects and configures the active backend. The chosen client is
// injected into the conversation core as a constructor dependency; nothing
// reads provider state globally.
type Options struct {
	Provider     string // "gemini" or "openai"
	GeminiAPIKey string
	OpenAIAPIKey string
	Model        string // provider-specific model name, empty for the default
}

// NewClient builds the configured backend adapter.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case "gemini", "":
		return NewGeminiClient(ctx, opts.GeminiAPIKey, opts.Model)
	case "openai":
		return NewOpenAIClient(opts.OpenAIAPIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}
