// Package ontology resolves verbs, nouns, idioms and places to ontology
// classes. Lookup tables are loaded once by the host and injected.
package ontology

import (
	"context"

	"github.com/ppiankov/narrtl/internal/model"
)

// Resolver is the semantic class lookup service. Misses return Unknown
// rather than an error.
type Resolver interface {
	// EventClass maps a verb lemma to an event class
	EventClass(ctx context.Context, lemma string) string

	// NounClass maps a noun phrase to a class
	NounClass(ctx context.Context, text string) string

	// Idiom returns the templates registered for a lemma in the context of
	// its frame, or nil
	Idiom(ctx context.Context, lemma string, frame *model.Frame) []model.Template

	// Location returns geographic details for a place name
	Location(ctx context.Context, text string) Location
}

// Location describes a resolved place
type Location struct {
	Class      string `json:"class" yaml:"class"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	AdminLevel string `json:"admin_level,omitempty" yaml:"admin_level,omitempty"` // admin level or geonames id
}

// Known reports whether the location resolved
func (l Location) Known() bool {
	return l.Class != "" && l.Class != Unknown
}

// Catalog lists the classes a resolver knows; used to bound LLM answers
type Catalog interface {
	EventClasses() []string
	NounClasses() []string
}

// Genders guesses the grammatical gender of a name
type Genders interface {
	Gender(text string) string
}

// idiomKeys lists lookup keys from most to least specific: lemma plus an
// object head, lemma plus a complement, lemma plus a preposition, lemma.
func idiomKeys(lemma string, frame *model.Frame) []string {
	var keys []string
	if frame != nil {
		for _, o := range frame.Objects {
			keys = append(keys, lemma+" "+normalize(o.Head))
			if o.Text != o.Head {
				keys = append(keys, lemma+" "+normalize(o.Text))
			}
		}
		for _, c := range frame.Complements {
			keys = append(keys, lemma+" "+normalize(c))
		}
		for _, p := range frame.Prepositions {
			keys = append(keys, lemma+" "+normalize(p.Text))
		}
	}
	return append(keys, lemma)
}

// TypeClass returns the class asserted by a type template ("event a X" or
// "event a xcomp(X)"), or "".
func TypeClass(templates []model.Template) string {
	for _, t := range templates {
		if t.Subject.Kind != model.TermEvent || t.Predicate != PredType || len(t.Objects) == 0 {
			continue
		}
		switch o := t.Objects[0]; o.Kind {
		case model.TermLiteral, model.TermClausal:
			return o.Value
		}
	}
	return ""
}
