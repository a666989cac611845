package model

import (
	"fmt"
	"strings"
)

// Tense of a verb frame
type Tense string

const (
	TensePresent Tense = "Present"
	TensePast    Tense = "Past"
	TenseFuture  Tense = "Future"
)

// Role classifies the semantic type of an entity mention
type Role string

const (
	RoleNarrator  Role = "Narrator"  // first person singular pronoun
	RoleAudience  Role = "Audience"  // second person pronoun
	RoleInclusive Role = "Inclusive" // first person plural pronoun
	RoleGroup     Role = "Group"     // third person plural pronoun
	RolePerson    Role = "Person"    // third person singular pronoun
	RoleNoun      Role = "Noun"      // generic noun without an entity label
)

// NegatedPrefix marks a mention introduced by the determiner "no"
const NegatedPrefix = "NEG_"

// IsPronoun reports whether the role came from a pronoun
func (r Role) IsPronoun() bool {
	switch r {
	case RoleNarrator, RoleAudience, RoleInclusive, RoleGroup, RolePerson:
		return true
	}
	return false
}

// Mention is an entity reference inside a frame
type Mention struct {
	Text         string        `json:"text"`                   // Modifiers plus head word
	Head         string        `json:"head"`                   // Head lemma
	Role         Role          `json:"role"`                   // Pronoun role, entity label or Noun
	Negated      bool          `json:"negated,omitempty"`      // Determiner "no"
	Plural       bool          `json:"plural,omitempty"`       // Number=Plur
	Gender       string        `json:"gender,omitempty"`       // female, male or ""
	Prepositions []Preposition `json:"prepositions,omitempty"` // Nested attachments ("members of the group")
}

// Type returns the role with the negation marker applied
func (m Mention) Type() string {
	if m.Negated {
		return NegatedPrefix + string(m.Role)
	}
	return string(m.Role)
}

// Preposition is a prepositional attachment with its objects
type Preposition struct {
	Text    string    `json:"text"`
	Objects []Mention `json:"objects,omitempty"`
}

// Frame is the subject/verb/object/preposition structure of one verb
type Frame struct {
	Lemma             string        `json:"lemma"`
	Text              string        `json:"text"`
	Tense             Tense         `json:"tense"`
	Negation          bool          `json:"negation,omitempty"`
	Passive           bool          `json:"passive,omitempty"`
	Subjects          []Mention     `json:"subjects,omitempty"`
	Objects           []Mention     `json:"objects,omitempty"`
	Prepositions      []Preposition `json:"prepositions,omitempty"`
	Complements       []string      `json:"complements,omitempty"`
	ClausalComplement *Frame        `json:"verb_xcomp,omitempty"`
	AdverbialClause   *Frame        `json:"verb_advcl,omitempty"`
	Coordinated       []*Frame      `json:"coordinated,omitempty"`
}

// IsEmpty reports whether no root verb was found
func (f *Frame) IsEmpty() bool {
	return f == nil || f.Lemma == ""
}

// Verbs returns the frame followed by its coordinated siblings
func (f *Frame) Verbs() []*Frame {
	if f.IsEmpty() {
		return nil
	}
	return append([]*Frame{f}, f.Coordinated...)
}

// MentionTexts returns the text of every mention reachable from the frame:
// subjects, objects and preposition objects of the verb, its complements,
// adverbial clause and coordinated siblings.
func (f *Frame) MentionTexts() []string {
	if f.IsEmpty() {
		return nil
	}
	var out []string
	var addMentions func(ms []Mention)
	addPreps := func(ps []Preposition) {
		for _, p := range ps {
			addMentions(p.Objects)
		}
	}
	addMentions = func(ms []Mention) {
		for _, m := range ms {
			out = append(out, m.Text)
			addPreps(m.Prepositions)
		}
	}
	addMentions(f.Subjects)
	addMentions(f.Objects)
	addPreps(f.Prepositions)
	for _, sub := range []*Frame{f.ClausalComplement, f.AdverbialClause} {
		out = append(out, sub.MentionTexts()...)
	}
	for _, sub := range f.Coordinated {
		out = append(out, sub.MentionTexts()...)
	}
	return out
}

// String renders the frame deterministically for logs and reports
func (f *Frame) String() string {
	if f.IsEmpty() {
		return "{}"
	}
	var sb strings.Builder
	f.write(&sb)
	return sb.String()
}

func (f *Frame) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "{verb: %s, tense: %s", f.Lemma, f.Tense)
	if f.Negation {
		sb.WriteString(", negated")
	}
	if f.Passive {
		sb.WriteString(", passive")
	}
	writeMentions(sb, "subjects", f.Subjects)
	writeMentions(sb, "objects", f.Objects)
	writePrepositions(sb, f.Prepositions)
	if len(f.Complements) > 0 {
		fmt.Fprintf(sb, ", complements: [%s]", strings.Join(f.Complements, ", "))
	}
	if f.ClausalComplement != nil {
		sb.WriteString(", verb_xcomp: ")
		f.ClausalComplement.write(sb)
	}
	if f.AdverbialClause != nil {
		sb.WriteString(", verb_advcl: ")
		f.AdverbialClause.write(sb)
	}
	for _, c := range f.Coordinated {
		sb.WriteString(", conj: ")
		c.write(sb)
	}
	sb.WriteString("}")
}

func writeMentions(sb *strings.Builder, key string, mentions []Mention) {
	if len(mentions) == 0 {
		return
	}
	fmt.Fprintf(sb, ", %s: [", key)
	for i, m := range mentions {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s (%s)", m.Text, m.Type())
		writePrepositions(sb, m.Prepositions)
	}
	sb.WriteString("]")
}

func writePrepositions(sb *strings.Builder, preps []Preposition) {
	for _, p := range preps {
		fmt.Fprintf(sb, ", prep_%s: [", p.Text)
		for i, m := range p.Objects {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s (%s)", m.Text, m.Type())
			writePrepositions(sb, m.Prepositions)
		}
		sb.WriteString("]")
	}
}
