package model

import (
	"sort"
	"strings"
)

// Coarse part-of-speech tags used by the dependency source
const (
	POSVerb  = "VERB"
	POSAux   = "AUX"
	POSNoun  = "NOUN"
	POSPropN = "PROPN"
	POSPron  = "PRON"
	POSPunct = "PUNCT"
	POSNum   = "NUM"
)

// Dependency relation labels (ClearNLP style, as emitted by spaCy English models)
const (
	DepRoot      = "ROOT"
	DepSubj      = "nsubj"
	DepSubjPass  = "nsubjpass"
	DepCSubj     = "csubj"
	DepExpl      = "expl"
	DepObj       = "dobj"
	DepDative    = "dative"
	DepAttr      = "attr"
	DepOprd      = "oprd"
	DepPrep      = "prep"
	DepPobj      = "pobj"
	DepPcomp     = "pcomp"
	DepAgent     = "agent"
	DepXcomp     = "xcomp"
	DepCcomp     = "ccomp"
	DepAdvcl     = "advcl"
	DepAcomp     = "acomp"
	DepAux       = "aux"
	DepAuxPass   = "auxpass"
	DepNeg       = "neg"
	DepConj      = "conj"
	DepCC        = "cc"
	DepPreconj   = "preconj"
	DepMark      = "mark"
	DepAdvmod    = "advmod"
	DepDet       = "det"
	DepAmod      = "amod"
	DepCompound  = "compound"
	DepNummod    = "nummod"
	DepNpadvmod  = "npadvmod"
	DepPunct     = "punct"
)

// Token is one node of a dependency tree
type Token struct {
	Index      int               `json:"id"`                   // 0-based position in the sentence
	Text       string            `json:"text"`                 // Surface form
	Lemma      string            `json:"lemma"`                // Lemma
	POS        string            `json:"pos"`                  // Coarse part of speech (UPOS)
	Tag        string            `json:"tag,omitempty"`        // Fine-grained tag
	Dep        string            `json:"dep"`                  // Relation to the head
	Head       int               `json:"head"`                 // Index of the head (self for the root)
	Entity     string            `json:"ent_type,omitempty"`   // Named-entity label (PERSON, GPE, DATE, ...)
	EntityIOB  string            `json:"ent_iob,omitempty"`    // B, I or O
	Morph      map[string]string `json:"morph,omitempty"`      // Tense, Person, Number, PronType, Gender
	SpaceAfter bool              `json:"whitespace,omitempty"` // Whether whitespace follows the token

	parent   *Token
	children []*Token
}

// Feature returns a morphological feature value or ""
func (t *Token) Feature(name string) string {
	if t.Morph == nil {
		return ""
	}
	return t.Morph[name]
}

// Parent returns the head token, nil for the root
func (t *Token) Parent() *Token {
	return t.parent
}

// Children returns the dependents in sentence order
func (t *Token) Children() []*Token {
	return t.children
}

// ChildrenByDep returns the dependents carrying one of the given labels
func (t *Token) ChildrenByDep(deps ...string) []*Token {
	var out []*Token
	for _, c := range t.children {
		for _, d := range deps {
			if c.Dep == d {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// HasChild reports whether any dependent carries one of the labels
func (t *Token) HasChild(deps ...string) bool {
	return len(t.ChildrenByDep(deps...)) > 0
}

// IsVerb reports whether the token is a full or auxiliary verb
func (t *Token) IsVerb() bool {
	return t.POS == POSVerb || t.POS == POSAux
}

// Lower returns the lowercased surface form
func (t *Token) Lower() string {
	return strings.ToLower(t.Text)
}

// Subtree returns the token and all its descendants in sentence order
func (t *Token) Subtree() []*Token {
	var out []*Token
	var walk func(*Token)
	walk = func(n *Token) {
		out = append(out, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Tree is a parsed sentence
type Tree struct {
	Text   string   `json:"text"`
	Tokens []*Token `json:"tokens"`
}

// NewTree links heads and children; tokens must be indexed 0..n-1
func NewTree(text string, tokens []*Token) *Tree {
	for _, tok := range tokens {
		tok.parent = nil
		tok.children = nil
	}
	for _, tok := range tokens {
		if tok.Head == tok.Index || tok.Head < 0 || tok.Head >= len(tokens) {
			continue
		}
		head := tokens[tok.Head]
		tok.parent = head
		head.children = append(head.children, tok)
	}
	return &Tree{Text: text, Tokens: tokens}
}

// Root returns the root token or nil
func (tr *Tree) Root() *Token {
	for _, tok := range tr.Tokens {
		if tok.parent == nil && tok.Dep == DepRoot {
			return tok
		}
	}
	for _, tok := range tr.Tokens {
		if tok.parent == nil && tok.POS != POSPunct {
			return tok
		}
	}
	return nil
}

// Entity is a contiguous named-entity span
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
}

// Entities groups entity-tagged tokens into spans
func (tr *Tree) Entities() []Entity {
	var out []Entity
	var cur *Entity
	var parts []*Token
	flush := func() {
		if cur != nil {
			cur.Text = JoinTokens(parts)
			out = append(out, *cur)
		}
		cur = nil
		parts = nil
	}
	for _, tok := range tr.Tokens {
		if tok.Entity == "" || tok.EntityIOB == "O" {
			flush()
			continue
		}
		if cur == nil || tok.EntityIOB == "B" || tok.Entity != cur.Label {
			flush()
			cur = &Entity{Label: tok.Entity, Start: tok.Index}
		}
		parts = append(parts, tok)
	}
	flush()
	return out
}

// JoinTokens renders tokens honouring their whitespace flags
func JoinTokens(tokens []*Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		sb.WriteString(tok.Text)
		if i < len(tokens)-1 {
			next := tokens[i+1]
			if tok.SpaceAfter || next.Index != tok.Index+1 {
				sb.WriteString(" ")
			}
		}
	}
	return sb.String()
}
