// Package parse provides dependency sources: given a sentence, they return
// a token tree with lemmas, part-of-speech tags, morphology, entity labels
// and dependency edges.
package parse

import (
	"context"
	"errors"
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
)

var (
	// ErrNotParsed is returned when a source has no parse for the text
	ErrNotParsed = errors.New("no parse available for text")

	// ErrEmptyParse is returned when the parser produced no tokens
	ErrEmptyParse = errors.New("parser returned no tokens")
)

// Source parses text into a dependency tree
type Source interface {
	Parse(ctx context.Context, text string) (*model.Tree, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, text string) (*model.Tree, error)

// Parse calls f
func (f SourceFunc) Parse(ctx context.Context, text string) (*model.Tree, error) {
	return f(ctx, text)
}

// NormalizeKey canonicalizes sentence text for lookups: whitespace is
// collapsed and terminal punctuation dropped.
func NormalizeKey(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimRight(text, " .;,:")
}

// parseFeatures decodes "Key=Value|Key=Value" morphology strings
func parseFeatures(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" || s == "_" {
		return nil
	}
	feats := make(map[string]string)
	for _, kv := range strings.Split(s, "|") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		feats[k] = v
	}
	return feats
}

// cloneTokens copies token values so callers may mutate their trees
func cloneTokens(src []model.Token) []*model.Token {
	out := make([]*model.Token, len(src))
	for i := range src {
		tok := src[i]
		if src[i].Morph != nil {
			tok.Morph = make(map[string]string, len(src[i].Morph))
			for k, v := range src[i].Morph {
				tok.Morph[k] = v
			}
		}
		out[i] = &tok
	}
	return out
}
