package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Classify picks one class from a closed candidate list for a term
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// TermKind says which resolver asked for the classification
type TermKind string

const (
	KindEvent TermKind = "event" // verb lemma
	KindNoun  TermKind = "noun"  // noun phrase
)

// ClassifyRequest contains the input for class selection
type ClassifyRequest struct {
	// Term is the verb lemma or noun text to classify
	Term string

	// Kind selects the prompt wording
	Kind TermKind

	// Candidates is the STRICT allowlist of classes the LLM may answer with
	Candidates []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ClassifyResponse contains the chosen class
type ClassifyResponse struct {
	// Class is one of the request candidates
	Class string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 50,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config, taking proxy
// settings from the shared HTTP configuration
func ConfigFromModel(c model.LLMConfig, h model.HTTPConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		HTTPProxy:  h.HTTPProxy,
		HTTPSProxy: h.HTTPSProxy,
		NoProxy:    h.NoProxy,
	}
}

const systemPrompt = "You classify words into ontology classes. Answer with exactly one class name from the list and nothing else."

// maxCandidates caps the allowlist sent in one prompt
const maxCandidates = 200

// BuildPrompt constructs the default class-selection prompt
func BuildPrompt(req ClassifyRequest) string {
	var sb strings.Builder
	switch req.Kind {
	case KindEvent:
		fmt.Fprintf(&sb, "Which class best describes the event or state expressed by the verb %q?\n", req.Term)
	default:
		fmt.Fprintf(&sb, "Which class best describes the thing named %q?\n", req.Term)
	}
	sb.WriteString("\nYou MUST answer with one of these classes:\n")
	sb.WriteString(joinCandidates(req.Candidates))
	sb.WriteString("\n\nIf none fits, answer NONE.")
	return sb.String()
}

func joinCandidates(candidates []string) string {
	if len(candidates) == 0 {
		return "(no classes available)"
	}
	var sb strings.Builder
	for i, c := range candidates {
		if i >= maxCandidates {
			fmt.Fprintf(&sb, "\n... and %d more", len(candidates)-maxCandidates)
			break
		}
		sb.WriteString("\n- ")
		sb.WriteString(c)
	}
	return sb.String()
}

// MatchCandidate maps a raw model answer onto the allowlist. Quotes,
// trailing punctuation and a missing ":" prefix are tolerated.
func MatchCandidate(answer string, candidates []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if i := strings.IndexByte(answer, '\n'); i >= 0 {
		answer = answer[:i]
	}
	answer = strings.Trim(answer, "\"'` .")
	if answer == "" || strings.EqualFold(answer, "none") {
		return "", false
	}
	for _, c := range candidates {
		if strings.EqualFold(c, answer) || strings.EqualFold(strings.TrimPrefix(c, ":"), answer) {
			return c, true
		}
	}
	return "", false
}

// finish validates an answer against the request allowlist
func finish(answer string, req ClassifyRequest, modelName string, tokens int) (*ClassifyResponse, error) {
	class, ok := MatchCandidate(answer, req.Candidates)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotInAllowlist, answer)
	}
	return &ClassifyResponse{Class: class, Model: modelName, TokensUsed: tokens}, nil
}

func maxTokens(req ClassifyRequest, config Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if config.MaxTokens > 0 {
		return config.MaxTokens
	}
	return 50
}

func promptFor(req ClassifyRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req)
}
