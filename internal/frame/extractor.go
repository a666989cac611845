// Package frame walks a clause's dependency tree into a nested
// subject/verb/object/preposition frame.
package frame

import (
	"sort"
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
)

// Extractor builds frames from dependency trees
type Extractor struct{}

// NewExtractor creates a new frame extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the frame of the tree's root verb. A tree without a
// verbal root yields an empty frame.
func (e *Extractor) Extract(tree *model.Tree) *model.Frame {
	if tree == nil {
		return &model.Frame{}
	}
	root := tree.Root()
	if root == nil || !root.IsVerb() {
		return &model.Frame{}
	}
	return verbFrame(root)
}

func verbFrame(verb *model.Token) *model.Frame {
	f := &model.Frame{
		Lemma: strings.ToLower(verb.Lemma),
		Text:  verb.Text,
	}

	var future, auxPast, hasAux bool
	for _, child := range verb.Children() {
		switch child.Dep {
		case model.DepAcomp:
			f.Complements = append(f.Complements, model.JoinTokens(child.Subtree()))

		case model.DepAdvcl:
			if child.IsVerb() {
				f.AdverbialClause = verbFrame(child)
			}

		case model.DepAgent:
			// passive "by X": X acts
			for _, pobj := range child.ChildrenByDep(model.DepPobj) {
				f.Subjects = append(f.Subjects, mentions(pobj)...)
			}

		case model.DepAux, model.DepAuxPass:
			hasAux = true
			if child.Dep == model.DepAuxPass {
				f.Passive = true
			}
			switch lemma := strings.ToLower(child.Lemma); {
			case lemma == "will" || child.Lower() == "'ll":
				future = true
			case (lemma == "be" || lemma == "do" || lemma == "have") && child.Feature("Tense") == "Past":
				auxPast = true
			}

		case model.DepConj:
			if !child.IsVerb() {
				continue
			}
			sub := verbFrame(child)
			siblings := sub.Coordinated
			sub.Coordinated = nil
			f.Coordinated = append(f.Coordinated, sub)
			f.Coordinated = append(f.Coordinated, siblings...)

		case model.DepNeg:
			f.Negation = true

		case model.DepSubj, model.DepCSubj:
			f.Subjects = append(f.Subjects, mentions(child)...)

		case model.DepSubjPass:
			// the receiver of a passive verb, not its agent
			f.Objects = append(f.Objects, mentions(child)...)
			f.Passive = true

		case model.DepObj, model.DepAttr, model.DepOprd, model.DepDative:
			f.Objects = append(f.Objects, mentions(child)...)

		case model.DepPrep:
			f.Prepositions = append(f.Prepositions, preposition(child))

		case model.DepXcomp, model.DepCcomp:
			if child.IsVerb() {
				if f.ClausalComplement == nil {
					f.ClausalComplement = verbFrame(child)
				}
			} else {
				f.Complements = append(f.Complements, model.JoinTokens(child.Subtree()))
			}
		}
	}

	f.Tense = tense(verb, hasAux, future, auxPast)

	for _, sub := range f.Coordinated {
		if len(sub.Subjects) == 0 {
			sub.Subjects = append([]model.Mention(nil), f.Subjects...)
		}
	}
	return f
}

// tense applies the default chain: "will" forces future; a past
// be/do/have auxiliary upgrades present to past; modals are ignored.
func tense(verb *model.Token, hasAux, future, auxPast bool) model.Tense {
	if future {
		return model.TenseFuture
	}
	if auxPast {
		return model.TensePast
	}
	participle := verb.Feature("VerbForm") == "Part"
	if verb.Feature("Tense") == "Past" && (!participle || !hasAux) {
		return model.TensePast
	}
	if verb.Tag == "VBD" {
		return model.TensePast
	}
	return model.TensePresent
}

func preposition(prep *model.Token) model.Preposition {
	p := model.Preposition{Text: prep.Lower()}
	for _, child := range prep.Children() {
		switch child.Dep {
		case model.DepPobj:
			p.Objects = append(p.Objects, mentions(child)...)
		case model.DepPrep:
			// "out of the house"
			if len(prep.ChildrenByDep(model.DepPobj)) == 0 {
				inner := preposition(child)
				p.Text += " " + inner.Text
				p.Objects = append(p.Objects, inner.Objects...)
			}
		}
	}
	return p
}

// mentions returns the mention for tok followed by its coordinated siblings
func mentions(tok *model.Token) []model.Mention {
	out := []model.Mention{mention(tok)}
	for _, c := range tok.ChildrenByDep(model.DepConj) {
		out = append(out, mentions(c)...)
	}
	return out
}

func mention(tok *model.Token) model.Mention {
	if tok.POS == model.POSPron {
		if m, ok := pronounMention(tok); ok {
			return m
		}
	}

	m := model.Mention{
		Head:   strings.ToLower(tok.Lemma),
		Role:   model.RoleNoun,
		Plural: tok.Feature("Number") == "Plur" || tok.Tag == "NNS" || tok.Tag == "NNPS",
		Gender: gender(tok.Feature("Gender")),
	}
	if tok.Entity != "" {
		m.Role = model.Role(tok.Entity)
	}

	var parts []*model.Token
	for _, child := range tok.Children() {
		switch child.Dep {
		case model.DepAmod, model.DepCompound, model.DepNummod:
			parts = append(parts, child.Subtree()...)
			if m.Role == model.RoleNoun && child.Entity != "" {
				m.Role = model.Role(child.Entity)
			}
		case model.DepDet:
			if child.Lower() == "no" {
				m.Negated = true
			}
		case model.DepPrep:
			m.Prepositions = append(m.Prepositions, preposition(child))
		}
	}
	parts = append(parts, tok)
	sortTokens(parts)

	words := make([]string, len(parts))
	for i, p := range parts {
		words[i] = p.Text
	}
	m.Text = strings.Join(words, " ")
	return m
}

type pronounFeatures struct {
	person string
	number string
	gender string
}

var pronouns = map[string]pronounFeatures{
	"i": {"1", "Sing", ""}, "me": {"1", "Sing", ""}, "my": {"1", "Sing", ""}, "mine": {"1", "Sing", ""}, "myself": {"1", "Sing", ""},
	"we": {"1", "Plur", ""}, "us": {"1", "Plur", ""}, "our": {"1", "Plur", ""}, "ours": {"1", "Plur", ""}, "ourselves": {"1", "Plur", ""},
	"you": {"2", "", ""}, "your": {"2", "", ""}, "yours": {"2", "", ""}, "yourself": {"2", "Sing", ""}, "yourselves": {"2", "Plur", ""},
	"they": {"3", "Plur", ""}, "them": {"3", "Plur", ""}, "their": {"3", "Plur", ""}, "theirs": {"3", "Plur", ""}, "themselves": {"3", "Plur", ""},
	"he": {"3", "Sing", "male"}, "him": {"3", "Sing", "male"}, "his": {"3", "Sing", "male"}, "himself": {"3", "Sing", "male"},
	"she": {"3", "Sing", "female"}, "her": {"3", "Sing", "female"}, "hers": {"3", "Sing", "female"}, "herself": {"3", "Sing", "female"},
}

func pronounMention(tok *model.Token) (model.Mention, bool) {
	feats := pronounFeatures{
		person: tok.Feature("Person"),
		number: tok.Feature("Number"),
		gender: gender(tok.Feature("Gender")),
	}
	if known, ok := pronouns[tok.Lower()]; ok {
		if feats.person == "" {
			feats.person = known.person
		}
		if feats.number == "" {
			feats.number = known.number
		}
		if feats.gender == "" {
			feats.gender = known.gender
		}
	}

	m := model.Mention{
		Text:   tok.Text,
		Head:   tok.Lower(),
		Plural: feats.number == "Plur",
		Gender: feats.gender,
	}
	switch {
	case feats.person == "1" && feats.number == "Plur":
		m.Role = model.RoleInclusive
	case feats.person == "1":
		m.Role = model.RoleNarrator
	case feats.person == "2":
		m.Role = model.RoleAudience
	case feats.person == "3" && feats.number == "Plur":
		m.Role = model.RoleGroup
	case feats.person == "3":
		m.Role = model.RolePerson
	default:
		return model.Mention{}, false
	}
	return m, true
}

func gender(feature string) string {
	switch feature {
	case "Fem":
		return "female"
	case "Masc":
		return "male"
	}
	return ""
}

func sortTokens(tokens []*model.Token) {
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Index < tokens[j].Index })
}
