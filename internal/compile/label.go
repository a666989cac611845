package compile

import (
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
)

// PrepPhrase is one preposition with the labels of its objects
type PrepPhrase struct {
	Prep    string
	Objects []string
}

// Label is the display summary of an event. It has no bearing on the
// compiled triples.
type Label struct {
	Subjects   []string
	Verb       string
	Complement string // clausal complement phrase; replaces Objects when set
	Objects    []string
	Preps      []PrepPhrase
}

// LabelFor builds the label of a verb frame. A passive frame without an
// agent shows its receivers in subject position.
func LabelFor(f *model.Frame) Label {
	if f.IsEmpty() {
		return Label{}
	}
	l := Label{
		Subjects: mentionTexts(f.Subjects),
		Verb:     f.Text,
		Objects:  mentionTexts(f.Objects),
	}
	if f.Negation {
		l.Verb = "not " + l.Verb
	}
	if len(l.Subjects) == 0 && f.Passive {
		l.Subjects, l.Objects = l.Objects, nil
	}
	for _, p := range f.Prepositions {
		l.Preps = append(l.Preps, PrepPhrase{Prep: p.Text, Objects: mentionTexts(p.Objects)})
	}
	if comp := f.ClausalComplement; comp != nil {
		inner := LabelFor(comp)
		inner.Subjects = nil
		l.Complement = "to " + inner.String()
	}
	return l
}

func (l Label) String() string {
	var parts []string
	if len(l.Subjects) > 0 {
		parts = append(parts, joinLabels(l.Subjects))
	}
	if l.Verb != "" {
		parts = append(parts, l.Verb)
	}
	switch {
	case l.Complement != "":
		parts = append(parts, l.Complement)
	case len(l.Objects) > 0:
		parts = append(parts, joinLabels(l.Objects))
	}
	for _, p := range l.Preps {
		if len(p.Objects) == 0 {
			continue
		}
		parts = append(parts, p.Prep, joinLabels(p.Objects))
	}
	return strings.Join(parts, " ")
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
}

func mentionTexts(mentions []model.Mention) []string {
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, m.Text)
	}
	return out
}
