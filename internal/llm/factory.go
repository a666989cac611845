package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownProvider is returned for an unsupported provider name
	ErrUnknownProvider = errors.New("unknown LLM provider")

	// ErrNotInAllowlist is returned when the model answers outside the candidate list
	ErrNotInAllowlist = errors.New("class not in allowlist")
)

// NewProvider creates a new LLM provider based on configuration. An empty
// provider name disables the LLM and returns nil, nil.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: openai, anthropic, ollama)", ErrUnknownProvider, config.Provider)
	}
}
