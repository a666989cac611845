package model

import (
	"fmt"
	"strings"
)

// TermKind enumerates the variants a template term can take
type TermKind int

const (
	TermLiteral    TermKind = iota // IRI, prefixed name or literal copied verbatim
	TermEvent                      // the event being compiled
	TermSubject                    // subj
	TermObject                     // dobj(...)
	TermPrepObject                 // pobj(...)
	TermClausal                    // xcomp(...)
)

// ObjectFilter restricts which bound object may fill a dobj/pobj term
type ObjectFilter string

const (
	FilterAny      ObjectFilter = ""
	FilterVerb     ObjectFilter = "verb"     // resolve the head noun as an event class
	FilterAgent    ObjectFilter = "agent"    // PERSON, ORG, NORP, GPE
	FilterLocation ObjectFilter = "location" // GPE, LOC, FAC
)

// Term is one slot of a template
type Term struct {
	Kind   TermKind
	Value  string       // literal text, or the already resolved first class of xcomp
	Filter ObjectFilter // dobj/pobj restriction
	Prep   string       // pobj(prep_X) scope
	Ignore bool         // xcomp(...,ignore): single-slot form
}

func (t Term) String() string {
	switch t.Kind {
	case TermEvent:
		return "event"
	case TermSubject:
		return "subj"
	case TermObject, TermPrepObject:
		name := "dobj"
		if t.Kind == TermPrepObject {
			name = "pobj"
		}
		var args []string
		if t.Prep != "" {
			args = append(args, "prep_"+t.Prep)
		}
		if t.Filter != FilterAny {
			args = append(args, string(t.Filter))
		}
		if len(args) == 0 {
			return name
		}
		return name + "(" + strings.Join(args, ",") + ")"
	case TermClausal:
		if t.Ignore {
			return "xcomp(" + t.Value + ",ignore)"
		}
		return "xcomp(" + t.Value + ")"
	default:
		return t.Value
	}
}

// TemplateKind distinguishes plain statements from condition idioms
type TemplateKind int

const (
	TemplateStatement TemplateKind = iota
	TemplateCondition              // :EnvironmentAndCondition subject-attribute idiom
)

// ConditionPredicate is the reserved predicate introducing a condition idiom
const ConditionPredicate = ":EnvironmentAndCondition"

// Template is an unresolved statement produced by idiom or ontology lookup
type Template struct {
	Kind      TemplateKind
	Subject   Term
	Predicate string
	Objects   []Term
	Attribute string // condition attribute: Ethnicity, PoliticalIdeology, LineOfBusiness
}

func (t Template) String() string {
	pred := t.Predicate
	if t.Kind == TemplateCondition {
		pred = ConditionPredicate
		if t.Attribute != "" {
			pred += "(" + t.Attribute + ")"
		}
	}
	objs := make([]string, len(t.Objects))
	for i, o := range t.Objects {
		objs[i] = o.String()
	}
	return fmt.Sprintf("%s %s %s", t.Subject, pred, strings.Join(objs, ", "))
}

// ParseTemplate parses the textual template form used in lexicons, e.g.
//
//	event :has_destination pobj(prep_to,location)
//	event a xcomp(:Love)
//	subj :EnvironmentAndCondition(Ethnicity) :Hispanic
func ParseTemplate(s string) (Template, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "."))
	fields := splitTopLevel(s)
	if len(fields) < 3 {
		return Template{}, fmt.Errorf("template %q: need subject, predicate and object", s)
	}

	subj, err := parseTerm(fields[0])
	if err != nil {
		return Template{}, fmt.Errorf("template %q: %w", s, err)
	}
	tmpl := Template{Kind: TemplateStatement, Subject: subj, Predicate: fields[1]}

	if strings.HasPrefix(fields[1], ConditionPredicate) {
		tmpl.Kind = TemplateCondition
		tmpl.Predicate = ConditionPredicate
		if args, ok := parenArgs(fields[1]); ok && len(args) > 0 {
			tmpl.Attribute = args[0]
		}
		// anything after the value is descriptive only
		obj, err := parseTerm(strings.TrimSuffix(fields[2], ","))
		if err != nil {
			return Template{}, fmt.Errorf("template %q: %w", s, err)
		}
		tmpl.Objects = []Term{obj}
		return tmpl, nil
	}

	for _, raw := range splitObjects(strings.Join(fields[2:], " ")) {
		obj, err := parseTerm(raw)
		if err != nil {
			return Template{}, fmt.Errorf("template %q: %w", s, err)
		}
		tmpl.Objects = append(tmpl.Objects, obj)
	}
	return tmpl, nil
}

func parseTerm(raw string) (Term, error) {
	raw = strings.TrimSpace(raw)
	name := raw
	if i := strings.IndexByte(raw, '('); i > 0 && !strings.HasPrefix(raw, "\"") {
		name = raw[:i]
	}
	args, hasArgs := parenArgs(raw)

	switch name {
	case "event":
		return Term{Kind: TermEvent}, nil
	case "subj":
		return Term{Kind: TermSubject}, nil
	case "dobj", "pobj":
		t := Term{Kind: TermObject}
		if name == "pobj" {
			t.Kind = TermPrepObject
		}
		for _, a := range args {
			switch {
			case strings.HasPrefix(a, "prep_"):
				t.Prep = strings.TrimPrefix(a, "prep_")
			case a == string(FilterVerb), a == string(FilterAgent), a == string(FilterLocation):
				t.Filter = ObjectFilter(a)
			case a == "":
			default:
				return Term{}, fmt.Errorf("unknown %s argument %q", name, a)
			}
		}
		if t.Prep != "" && t.Kind == TermObject {
			return Term{}, fmt.Errorf("dobj cannot be scoped to a preposition")
		}
		return t, nil
	case "xcomp":
		if !hasArgs || len(args) == 0 || args[0] == "" {
			return Term{}, fmt.Errorf("xcomp needs its governing class")
		}
		t := Term{Kind: TermClausal, Value: args[0]}
		if len(args) > 1 && args[1] == "ignore" {
			t.Ignore = true
		}
		return t, nil
	}
	if raw == "" {
		return Term{}, fmt.Errorf("empty term")
	}
	return Term{Kind: TermLiteral, Value: raw}, nil
}

func parenArgs(raw string) ([]string, bool) {
	open := strings.IndexByte(raw, '(')
	if open < 0 || !strings.HasSuffix(raw, ")") || strings.HasPrefix(raw, "\"") {
		return nil, false
	}
	inner := raw[open+1 : len(raw)-1]
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// splitTopLevel splits on whitespace outside quotes and parentheses
func splitTopLevel(s string) []string {
	var out []string
	var cur strings.Builder
	depth, quoted := 0, false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '(' && !quoted:
			depth++
		case r == ')' && !quoted:
			depth--
		case (r == ' ' || r == '\t') && !quoted && depth == 0:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// splitObjects splits an object list on commas outside quotes and parentheses
func splitObjects(s string) []string {
	var out []string
	var cur strings.Builder
	depth, quoted := 0, false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '(' && !quoted:
			depth++
		case r == ')' && !quoted:
			depth--
		case r == ',' && !quoted && depth == 0:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}
