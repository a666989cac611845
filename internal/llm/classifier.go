package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Classifier wraps an optional provider; a nil provider means disabled
type Classifier struct {
	provider Provider
	config   Config
}

// NewClassifier creates a classifier from configuration
func NewClassifier(config Config) (*Classifier, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Classifier{provider: provider, config: config}, nil
}

// NewClassifierWithProvider wraps an existing provider
func NewClassifierWithProvider(provider Provider, config Config) *Classifier {
	return &Classifier{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (c *Classifier) IsEnabled() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the configured provider name or ""
func (c *Classifier) ProviderName() string {
	if !c.IsEnabled() {
		return ""
	}
	return c.provider.Name()
}

// Classify asks the provider to choose one of candidates for term
func (c *Classifier) Classify(ctx context.Context, kind TermKind, term string, candidates []string) (string, error) {
	if !c.IsEnabled() {
		return "", fmt.Errorf("LLM classification disabled")
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidate classes for %q", term)
	}

	resp, err := c.provider.Classify(ctx, ClassifyRequest{
		Term:       term,
		Kind:       kind,
		Candidates: candidates,
		Model:      c.config.Model,
		MaxTokens:  c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s classify %q: %w", c.provider.Name(), term, err)
	}

	slog.Debug("LLM classified term", "provider", c.provider.Name(), "term", term, "class", resp.Class, "tokens", resp.TokensUsed)
	return resp.Class, nil
}
