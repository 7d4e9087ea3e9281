package repositories

import "context"

// GenerateOptions bound one language-model call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// LanguageModel abstracts the LLM backing reasoning, grammar correction, and
// compliant-rewrite generation.
type LanguageModel interface {
	// Generate returns the model's completion for a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	// GenerateStream returns the completion as incrementally arriving text
	// chunks. The channel is closed when generation ends or ctx is cancelled.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan string, error)
}
