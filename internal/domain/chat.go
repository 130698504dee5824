package domain

import "context"

// Role is a chat message author.
type Role string

const (
	// RoleSystem sets the assistant's discipline.
	RoleSystem Role = "system"
	// RoleUser carries the assembled prompt.
	RoleUser Role = "user"
)

// Message is one entry of a chat exchange.
type Message struct {
	Role    Role
	Content string
}

// Completion is the language model's answer with token usage.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ChatCompleter is the language-model completion boundary.
type ChatCompleter interface {
	Complete(ctx context.Context, model string, messages []Message) (Completion, error)
}
