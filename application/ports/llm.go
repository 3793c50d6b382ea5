package ports

import "context"

// Roles accepted in a model conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions configure a single model call.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
	Format      string // "json" asks the provider for a JSON-only response
}

// FormatJSON requests machine-readable output from the provider.
const FormatJSON = "json"

// Provider abstracts a text-generation backend.
type Provider interface {
	// Complete sends an ordered message sequence and returns the raw
	// model text. Callers must not assume the text is clean JSON even
	// when Format requests it.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)

	// IsAvailable reports whether the provider is configured and ready
	// to take calls.
	IsAvailable() bool
}
