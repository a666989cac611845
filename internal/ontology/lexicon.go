package ontology

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/narrtl/internal/model"
)

// LexiconFile is the YAML layout of a lexicon
type LexiconFile struct {
	EventClasses map[string]string   `yaml:"event_classes"`
	NounClasses  map[string]string   `yaml:"noun_classes"`
	Idioms       map[string][]string `yaml:"idioms"`
	Locations    map[string]Location `yaml:"locations"`
	Genders      map[string]string   `yaml:"genders"`
}

// Lexicon is an in-memory Resolver loaded once from YAML
type Lexicon struct {
	events    map[string]string
	nouns     map[string]string
	idioms    map[string][]model.Template
	locations map[string]Location
	genders   map[string]string
}

// LoadLexicon reads a YAML lexicon file
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadLexicon(f)
}

// ReadLexicon decodes a YAML lexicon
func ReadLexicon(r io.Reader) (*Lexicon, error) {
	var file LexiconFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	return NewLexicon(file)
}

// NewLexicon builds a lexicon, validating every idiom template
func NewLexicon(file LexiconFile) (*Lexicon, error) {
	lex := &Lexicon{
		events:    lowerKeys(file.EventClasses),
		nouns:     lowerKeys(file.NounClasses),
		idioms:    make(map[string][]model.Template, len(file.Idioms)),
		locations: make(map[string]Location, len(file.Locations)),
		genders:   lowerKeys(file.Genders),
	}
	for phrase, raws := range file.Idioms {
		templates := make([]model.Template, 0, len(raws))
		for _, raw := range raws {
			t, err := model.ParseTemplate(raw)
			if err != nil {
				return nil, fmt.Errorf("idiom %q: %w", phrase, err)
			}
			templates = append(templates, t)
		}
		lex.idioms[normalize(phrase)] = templates
	}
	for name, loc := range file.Locations {
		lex.locations[normalize(name)] = loc
	}
	return lex, nil
}

// File returns the lexicon in its serializable form
func (l *Lexicon) File() LexiconFile {
	file := LexiconFile{
		EventClasses: copyMap(l.events),
		NounClasses:  copyMap(l.nouns),
		Idioms:       make(map[string][]string, len(l.idioms)),
		Locations:    make(map[string]Location, len(l.locations)),
		Genders:      copyMap(l.genders),
	}
	for phrase, templates := range l.idioms {
		for _, t := range templates {
			file.Idioms[phrase] = append(file.Idioms[phrase], t.String())
		}
	}
	for name, loc := range l.locations {
		file.Locations[name] = loc
	}
	return file
}

// EventClass implements Resolver
func (l *Lexicon) EventClass(_ context.Context, lemma string) string {
	if c, ok := l.events[normalize(lemma)]; ok {
		return c
	}
	return Unknown
}

// NounClass implements Resolver; the full text is tried before its last word
func (l *Lexicon) NounClass(_ context.Context, text string) string {
	key := normalize(text)
	if c, ok := l.nouns[key]; ok {
		return c
	}
	if i := strings.LastIndexByte(key, ' '); i >= 0 {
		if c, ok := l.nouns[key[i+1:]]; ok {
			return c
		}
	}
	return Unknown
}

// Idiom implements Resolver
func (l *Lexicon) Idiom(_ context.Context, lemma string, frame *model.Frame) []model.Template {
	for _, key := range idiomKeys(normalize(lemma), frame) {
		if ts, ok := l.idioms[key]; ok {
			return append([]model.Template(nil), ts...)
		}
	}
	return nil
}

// Location implements Resolver
func (l *Lexicon) Location(_ context.Context, text string) Location {
	if loc, ok := l.locations[normalize(text)]; ok {
		return loc
	}
	return Location{Class: Unknown}
}

// Gender implements Genders
func (l *Lexicon) Gender(text string) string {
	return l.genders[normalize(text)]
}

// EventClasses implements Catalog
func (l *Lexicon) EventClasses() []string {
	return distinctValues(l.events)
}

// NounClasses implements Catalog
func (l *Lexicon) NounClasses() []string {
	return distinctValues(l.nouns)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalize(k)] = v
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func distinctValues(m map[string]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range m {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
