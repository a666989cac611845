package ontology

import (
	"context"
	"log/slog"

	"github.com/ppiankov/narrtl/internal/llm"
)

// Classifier picks a class from a closed list
type Classifier interface {
	Classify(ctx context.Context, kind llm.TermKind, term string, candidates []string) (string, error)
}

// LLMResolver asks a language model to classify lemmas and nouns the
// wrapped resolver does not know. Answers are limited to the wrapped
// resolver's catalog; failures degrade to Unknown.
type LLMResolver struct {
	Resolver
	classifier Classifier
	events     []string
	nouns      []string
	logger     *slog.Logger
}

// NewLLMResolver wraps base; the candidate lists come from base when it
// implements Catalog
func NewLLMResolver(base Resolver, classifier Classifier, logger *slog.Logger) *LLMResolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &LLMResolver{Resolver: base, classifier: classifier, logger: logger}
	if cat, ok := base.(Catalog); ok {
		r.events = cat.EventClasses()
		r.nouns = cat.NounClasses()
	}
	return r
}

// EventClass implements Resolver
func (r *LLMResolver) EventClass(ctx context.Context, lemma string) string {
	if c := r.Resolver.EventClass(ctx, lemma); c != Unknown {
		return c
	}
	return r.classify(ctx, llm.KindEvent, lemma, r.events)
}

// NounClass implements Resolver
func (r *LLMResolver) NounClass(ctx context.Context, text string) string {
	if c := r.Resolver.NounClass(ctx, text); c != Unknown {
		return c
	}
	return r.classify(ctx, llm.KindNoun, text, r.nouns)
}

func (r *LLMResolver) classify(ctx context.Context, kind llm.TermKind, term string, candidates []string) string {
	if r.classifier == nil || len(candidates) == 0 {
		return Unknown
	}
	class, err := r.classifier.Classify(ctx, kind, term, candidates)
	if err != nil {
		r.logger.Warn("LLM classification failed", "kind", kind, "term", term, "error", err)
		return Unknown
	}
	return class
}

// Gender forwards to the wrapped resolver when it knows genders
func (r *LLMResolver) Gender(text string) string {
	if g, ok := r.Resolver.(Genders); ok {
		return g.Gender(text)
	}
	return ""
}
