package domain

import "context"

// EmbeddingResult holds a computed embedding and the token usage it cost.
// Cache hits report zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Implementations are external providers; any
// error is treated uniformly by callers as "no embedding available".
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker is optionally implemented by embedders that can verify
// provider reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
