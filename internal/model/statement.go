package model

import "strings"

// Statement is a resolved Turtle statement
type Statement struct {
	Subject   string   `json:"subject"`
	Predicate string   `json:"predicate"`
	Objects   []string `json:"objects"`

	// Clausal marks a type statement built from a two-slot xcomp term:
	// Objects[0] is the governing class, Objects[1] the complement class.
	Clausal bool `json:"-"`
}

// String renders the statement as a Turtle fragment ending in a period
func (s Statement) String() string {
	frag := s.Subject + " " + s.Predicate + " " + strings.Join(s.Objects, ", ")
	if !strings.HasSuffix(frag, ".") {
		frag += " ."
	}
	return frag
}

// Fragments renders statements in order
func Fragments(stmts []Statement) []string {
	out := make([]string, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.String())
	}
	return out
}

// Binding assigns a URI to one mention text
type Binding struct {
	Text        string      `json:"text"`
	URI         string      `json:"uri"`
	Entity      string      `json:"entity,omitempty"` // Named-entity label of the mention
	Head        string      `json:"head,omitempty"`   // Head lemma, for dobj(verb)
	Role        Role        `json:"role,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	Plural      bool        `json:"plural,omitempty"`
	Definitions []Statement `json:"definitions,omitempty"` // Type/label statements describing URI
}

// Bindings is an ordered dictionary keyed by mention text
type Bindings []Binding

// Lookup returns the binding for a mention text
func (b Bindings) Lookup(text string) (Binding, bool) {
	for _, x := range b {
		if x.Text == text {
			return x, true
		}
	}
	return Binding{}, false
}

// Add inserts a binding unless its text is already bound
func (b Bindings) Add(x Binding) Bindings {
	if _, ok := b.Lookup(x.Text); ok {
		return b
	}
	return append(b, x)
}

// URIs returns the distinct URIs in order
func (b Bindings) URIs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, x := range b {
		if !seen[x.URI] {
			seen[x.URI] = true
			out = append(out, x.URI)
		}
	}
	return out
}

// PrepBinding is a binding reached through a preposition
type PrepBinding struct {
	Prep string `json:"prep"`
	Binding
}
