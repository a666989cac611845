package compile

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/ontology"
	"github.com/ppiankov/narrtl/internal/turtle"
)

var (
	agentEntities    = map[string]bool{"PERSON": true, "ORG": true, "NORP": true, "GPE": true}
	locationEntities = map[string]bool{"GPE": true, "LOC": true, "FAC": true}
	timeEntities     = map[string]bool{"DATE": true, "TIME": true}
	groupEntities    = map[string]bool{"ORG": true, "NORP": true}
)

// Bindings are the mention dictionaries of a clause. The top level holds
// every mention of the clause; Verbs holds one dictionary per coordinated
// verb, in Frame.Verbs order, each covering that verb and its clausal
// complement.
type Bindings struct {
	Subjects model.Bindings
	Objects  model.Bindings
	Preps    []model.PrepBinding

	// Receivers are the passive subjects of a verb that governs a clausal
	// complement; they stand in for the missing agent when events split.
	Receivers model.Bindings

	Verbs []Bindings

	Unknown int // nouns whose class did not resolve
}

// ForVerb returns the dictionary of the i-th verb of the clause frame.
// Bindings built without per-verb entries apply to every verb.
func (b Bindings) ForVerb(i int) Bindings {
	if i >= 0 && i < len(b.Verbs) {
		return b.Verbs[i]
	}
	return b
}

func (b *Bindings) merge(v Bindings) {
	for _, x := range v.Subjects {
		b.Subjects = b.Subjects.Add(x)
	}
	for _, x := range v.Objects {
		b.Objects = b.Objects.Add(x)
	}
	for _, x := range v.Receivers {
		b.Receivers = b.Receivers.Add(x)
	}
	for _, p := range v.Preps {
		if !hasPrep(b.Preps, p) {
			b.Preps = append(b.Preps, p)
		}
	}
}

func hasPrep(preps []model.PrepBinding, p model.PrepBinding) bool {
	for _, q := range preps {
		if q.Prep == p.Prep && q.Binding.URI == p.Binding.URI {
			return true
		}
	}
	return false
}

func (b Bindings) all() []model.Binding {
	out := make([]model.Binding, 0, len(b.Subjects)+len(b.Objects)+len(b.Receivers)+len(b.Preps))
	out = append(out, b.Subjects...)
	out = append(out, b.Receivers...)
	out = append(out, b.Objects...)
	for _, p := range b.Preps {
		out = append(out, p.Binding)
	}
	return out
}

// Candidates returns the nouns bound in the clause that later pronouns
// may refer to, in discovery order
func (b Bindings) Candidates() []model.Candidate {
	var out []model.Candidate
	seen := make(map[string]bool)
	for _, x := range b.all() {
		if x.Role.IsPronoun() || timeEntities[x.Entity] || seen[x.URI] || x.URI == "" {
			continue
		}
		seen[x.URI] = true
		out = append(out, candidateOf(x))
	}
	return out
}

func candidateOf(x model.Binding) model.Candidate {
	return model.Candidate{Text: x.Text, URI: x.URI, Entity: x.Entity, Gender: x.Gender, Plural: x.Plural}
}

// Binder assigns URIs to the mentions of a frame
type Binder struct {
	settings
	resolver ontology.Resolver
	genders  ontology.Genders
	logger   *slog.Logger
}

// NewBinder creates a binder. Gender guesses come from the resolver when
// it implements ontology.Genders.
func NewBinder(resolver ontology.Resolver, logger *slog.Logger, opts ...Option) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Binder{settings: newSettings(opts), resolver: resolver, logger: logger}
	b.genders, _ = resolver.(ontology.Genders)
	return b
}

// Bind builds the subject, object and preposition dictionaries of every
// verb of a clause frame. A mention text repeated across coordinated verbs
// keeps one URI. Third person pronouns resolve against nouns bound earlier
// in the clause, then against carry.LastNouns.
func (b *Binder) Bind(ctx context.Context, f *model.Frame, carry model.Carry) Bindings {
	var out Bindings
	if f.IsEmpty() {
		return out
	}
	local := carry
	bound := make(map[string]model.Binding)

	bindAll := func(mentions []model.Mention, into model.Bindings) model.Bindings {
		for _, m := range mentions {
			if _, ok := into.Lookup(m.Text); ok {
				continue
			}
			x, ok := bound[m.Text]
			if !ok {
				x = b.bind(ctx, m, &local, &out.Unknown)
				bound[m.Text] = x
				if !x.Role.IsPronoun() && !timeEntities[x.Entity] {
					local = local.WithNouns([]model.Candidate{candidateOf(x)})
				}
			}
			into = into.Add(x)
		}
		return into
	}

	for _, v := range f.Verbs() {
		var vb Bindings
		vb.Subjects = bindAll(v.Subjects, nil)
		if v.Passive && v.ClausalComplement != nil {
			vb.Receivers = bindAll(v.Objects, nil)
		} else {
			vb.Objects = bindAll(v.Objects, nil)
		}
		vb.Preps = b.bindPreps(v.Prepositions, nil, bindAll)

		if comp := v.ClausalComplement; comp != nil {
			vb.Objects = bindAll(comp.Objects, vb.Objects)
			vb.Preps = b.bindPreps(comp.Prepositions, vb.Preps, bindAll)
		}
		out.merge(vb)
		out.Verbs = append(out.Verbs, vb)
	}
	return out
}

func (b *Binder) bindPreps(preps []model.Preposition, into []model.PrepBinding, bindAll func([]model.Mention, model.Bindings) model.Bindings) []model.PrepBinding {
	for _, p := range preps {
		bound := bindAll(p.Objects, nil)
		for _, x := range bound {
			into = append(into, model.PrepBinding{Prep: p.Text, Binding: x})
		}
	}
	return into
}

func (b *Binder) bind(ctx context.Context, m model.Mention, local *model.Carry, unknown *int) model.Binding {
	x := model.Binding{Text: m.Text, Head: m.Head, Role: m.Role, Gender: m.Gender, Plural: m.Plural}

	switch m.Role {
	case model.RoleNarrator:
		x.URI = ontology.Narrator
		x.Definitions = typeAndLabel(x.URI, ontology.ClassPerson, "")
	case model.RoleAudience:
		x.URI = ontology.Audience
		x.Definitions = typeAndLabel(x.URI, ontology.ClassPerson, "")
	case model.RoleInclusive:
		x.URI = ontology.NarratorAndOthers
		x.Plural = true
		x.Definitions = typeAndLabel(x.URI, ontology.ClassGroup, "")
	case model.RolePerson, model.RoleGroup:
		if c, ok := antecedent(m, local.LastNouns); ok {
			x.URI, x.Entity, x.Gender, x.Plural = c.URI, c.Entity, c.Gender, c.Plural
			return x
		}
		class, prefix := ontology.ClassPerson, ":Person_"
		if m.Role == model.RoleGroup {
			class, prefix = ontology.ClassGroup, ":Group_"
		}
		x.URI = prefix + b.newID()
		x.Definitions = typeAndLabel(x.URI, class, m.Text)
	default:
		b.bindNoun(ctx, m, &x, unknown)
	}

	if m.Negated {
		x.Definitions = append(x.Definitions, model.Statement{Subject: x.URI, Predicate: ontology.PredNegated, Objects: []string{turtle.True}})
	}
	return x
}

// bindNoun gives named entities a stable name-derived URI and other nouns
// a fresh one typed through the noun resolver
func (b *Binder) bindNoun(ctx context.Context, m model.Mention, x *model.Binding, unknown *int) {
	if m.Role != model.RoleNoun {
		x.Entity = string(m.Role)
	}

	if class := ontology.EntityClass(x.Entity); class != "" && !m.Negated {
		if uri := ontology.LocalName(m.Text); uri != "" {
			x.URI = uri
			if x.Entity == "PERSON" && x.Gender == "" && b.genders != nil {
				x.Gender = b.genders.Gender(firstWord(m.Text))
			}
			if locationEntities[x.Entity] {
				if loc := b.resolver.Location(ctx, m.Text); loc.Known() {
					class = loc.Class
					x.Definitions = append(typeAndLabel(uri, class, m.Text), locationDetails(uri, loc)...)
					return
				}
			}
			x.Definitions = typeAndLabel(uri, class, m.Text)
			return
		}
	}

	class := b.resolver.NounClass(ctx, m.Text)
	if class == "" || class == ontology.Unknown {
		*unknown++
		b.logger.Warn("unclassified noun", "noun", m.Text, "fallback", ontology.ClassThing)
		class = ontology.ClassThing
	}
	if class == ontology.ClassPerson && x.Gender == "" && b.genders != nil {
		x.Gender = b.genders.Gender(m.Head)
	}
	x.URI = ":Noun_" + b.newID()
	x.Definitions = typeAndLabel(x.URI, class, m.Text)
}

// antecedent finds the most recent noun compatible with a third person
// pronoun
func antecedent(m model.Mention, nouns []model.Candidate) (model.Candidate, bool) {
	for _, c := range nouns {
		if timeEntities[c.Entity] || locationEntities[c.Entity] {
			continue
		}
		if m.Role == model.RoleGroup {
			if c.Plural || groupEntities[c.Entity] {
				return c, true
			}
			continue
		}
		if c.Plural || (c.Entity != "PERSON" && c.Gender == "") {
			continue
		}
		if m.Gender == "" || c.Gender == "" || c.Gender == m.Gender {
			return c, true
		}
	}
	return model.Candidate{}, false
}

func typeAndLabel(uri, class, label string) []model.Statement {
	out := []model.Statement{{Subject: uri, Predicate: ontology.PredType, Objects: []string{class}}}
	if label != "" {
		out = append(out, model.Statement{Subject: uri, Predicate: ontology.PredLabel, Objects: []string{turtle.Literal(label)}})
	}
	return out
}

func locationDetails(uri string, loc ontology.Location) []model.Statement {
	var out []model.Statement
	if loc.Country != "" {
		out = append(out, model.Statement{Subject: uri, Predicate: ontology.PredCountry, Objects: []string{turtle.Literal(loc.Country)}})
	}
	if loc.AdminLevel != "" {
		pred := ontology.PredAdminLevel
		if isDigits(loc.AdminLevel) && len(loc.AdminLevel) > 2 {
			pred = ontology.PredGeonamesID
		}
		out = append(out, model.Statement{Subject: uri, Predicate: pred, Objects: []string{turtle.Literal(loc.AdminLevel)}})
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}
