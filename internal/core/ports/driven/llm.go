package driven

import "context"

// LLMService answers from retrieved context. It is optional: without one
// the notebook still retrieves but cannot answer.
type LLMService interface {
	// Chat sends the conversation and returns the model's reply, trimmed.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping checks the endpoint and credentials without generating.
	Ping(ctx context.Context) error

	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a single Chat call. Zero MaxTokens leaves the limit
// to the adapter.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
