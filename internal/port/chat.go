package port

// ChatOptions tunes sampling for a single completion request.
// A zero Temperature means near-deterministic output; MaxTokens caps the
// response length (0 leaves the model default in place).
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

// ChatModel represents a chat-completion model.
type ChatModel interface {
	// Complete sends one prompt and returns the raw completion text.
	// The API enforces no response schema; callers must parse defensively.
	Complete(systemPrompt, userPrompt string, opts ChatOptions) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
