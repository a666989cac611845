// Package clause splits compound and complex sentences into independent
// clauses by repeatedly re-parsing candidates until no split rule fires.
package clause

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/parse"
)

// ErrIterationLimit is returned when decomposition fails to converge
var ErrIterationLimit = errors.New("clause decomposition did not converge")

// passesPerToken bounds the fixed-point loop relative to sentence length
const passesPerToken = 2

var (
	coordinators = map[string]bool{
		"and": true, "but": true, "or": true, "nor": true, "yet": true, "so": true, "then": true,
	}
	alternations = map[string]bool{"or": true, "nor": true}

	// connectors that authorize splitting off an adverbial clause
	causalConnectors = map[string]bool{
		"when": true, "whenever": true, "while": true, "because": true, "since": true, "as": true,
		"if": true, "then": true, "after": true, "before": true, "until": true, "once": true,
	}

	// connectors in the main clause that authorize splitting off a clausal complement
	effectConnectors = map[string]bool{
		"so": true, "therefore": true, "consequently": true, "thus": true, "hence": true,
	}
)

// candidate is a clause under construction
type candidate struct {
	text        string
	connector   string
	alternative bool
	final       bool // produced by a semicolon split: no further tree-based checks
}

// Decomposer splits sentences into clauses
type Decomposer struct {
	source parse.Source
	logger *slog.Logger
}

// NewDecomposer creates a decomposer backed by a dependency source
func NewDecomposer(source parse.Source, logger *slog.Logger) *Decomposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decomposer{source: source, logger: logger}
}

// Decompose returns the ordered independent clauses of a sentence. It
// never returns an empty list on success.
func (d *Decomposer) Decompose(ctx context.Context, sentence string) ([]model.Clause, error) {
	candidates := []candidate{{text: Terminate(sentence)}}
	limit := passesPerToken*len(strings.Fields(sentence)) + 2

	for pass := 0; ; pass++ {
		if pass > limit {
			return nil, fmt.Errorf("%w after %d passes: %q", ErrIterationLimit, pass, sentence)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := make([]candidate, 0, len(candidates)+1)
		for _, c := range candidates {
			parts, err := d.split(ctx, c)
			if err != nil {
				return nil, fmt.Errorf("split %q: %w", c.text, err)
			}
			next = append(next, parts...)
		}

		if len(next) == len(candidates) {
			return toClauses(next), nil
		}
		d.logger.Debug("clause split", "sentence", sentence, "pass", pass, "clauses", len(next))
		candidates = next
	}
}

func toClauses(cands []candidate) []model.Clause {
	out := make([]model.Clause, len(cands))
	for i, c := range cands {
		out[i] = model.Clause{Text: c.text, Connector: c.connector, Alternative: c.alternative}
	}
	return out
}

// split applies the first rule that fires and returns one or two candidates
func (d *Decomposer) split(ctx context.Context, c candidate) ([]candidate, error) {
	if before, after, ok := strings.Cut(c.text, "; "); ok {
		first := candidate{text: Terminate(before), final: true, connector: c.connector, alternative: c.alternative}
		second := candidate{text: Terminate(after), final: true}
		return []candidate{first, second}, nil
	}
	if c.final {
		return []candidate{c}, nil
	}

	tree, err := d.source.Parse(ctx, c.text)
	if err != nil {
		return nil, err
	}
	root := tree.Root()
	if root == nil || !root.IsVerb() {
		return []candidate{c}, nil
	}

	if parts, ok := splitCoordination(tree, root, c); ok {
		return parts, nil
	}
	if parts, ok := splitSubordinate(tree, root, c); ok {
		return parts, nil
	}
	return []candidate{c}, nil
}

// splitCoordination separates a coordinated verb ("seen") from the rest of
// the sentence ("unseen"). A coordinated verb without its own subject
// borrows the root's subject; with neither, no split occurs.
func splitCoordination(tree *model.Tree, root *model.Token, c candidate) ([]candidate, bool) {
	var conj *model.Token
	for _, child := range root.ChildrenByDep(model.DepConj) {
		if child.IsVerb() {
			conj = child
			break
		}
	}
	if conj == nil {
		return nil, false
	}

	var prefix []*model.Token
	if !hasSubject(conj) {
		subj := root.ChildrenByDep(model.DepSubj, model.DepSubjPass, model.DepExpl)
		if len(subj) == 0 {
			return nil, false
		}
		prefix = subj[0].Subtree()
	}

	seenSet := indexSet(conj.Subtree())
	connector := ""
	for _, cc := range root.ChildrenByDep(model.DepCC) {
		if cc.Index < conj.Index {
			connector = cc.Lower()
		}
	}
	if connector == "" {
		for _, cc := range conj.ChildrenByDep(model.DepCC, model.DepPreconj) {
			connector = cc.Lower()
		}
	}

	unseen := filterTokens(tree.Tokens, func(t *model.Token) bool { return !seenSet[t.Index] })
	seen := append(append([]*model.Token(nil), prefix...), conj.Subtree()...)

	main := candidate{text: renderSpan(unseen, true), connector: c.connector, alternative: c.alternative}
	other := candidate{text: renderSpan(seen, true), alternative: alternations[connector]}
	if !hasContent(main.text) || !hasContent(other.text) {
		return nil, false
	}
	return []candidate{main, other}, true
}

// splitSubordinate separates an adverbial clause carrying a causal
// connector, or a clausal complement whose main clause carries an effect
// connector. The clause lacking the connector is marked with it.
func splitSubordinate(tree *model.Tree, root *model.Token, c candidate) ([]candidate, bool) {
	for _, advcl := range root.ChildrenByDep(model.DepAdvcl) {
		if !advcl.IsVerb() || !hasSubject(advcl) {
			continue
		}
		marker := connectorOf(advcl, causalConnectors)
		if marker == nil {
			continue
		}
		seenSet := indexSet(advcl.Subtree())
		unseen := filterTokens(tree.Tokens, func(t *model.Token) bool { return !seenSet[t.Index] })
		seen := filterTokens(advcl.Subtree(), func(t *model.Token) bool { return t != marker })

		main := candidate{text: renderSpan(unseen, true), connector: marker.Lower(), alternative: c.alternative}
		sub := candidate{text: renderSpan(seen, true), connector: c.connector}
		if !hasContent(main.text) || !hasContent(sub.text) {
			continue
		}
		return []candidate{main, sub}, true
	}

	for _, ccomp := range root.ChildrenByDep(model.DepCcomp) {
		if !ccomp.IsVerb() || !hasSubject(ccomp) {
			continue
		}
		seenSet := indexSet(ccomp.Subtree())
		unseenAll := filterTokens(tree.Tokens, func(t *model.Token) bool { return !seenSet[t.Index] })

		var marker *model.Token
		for _, t := range unseenAll {
			if effectConnectors[t.Lower()] && t != root {
				marker = t
				break
			}
		}
		if marker == nil {
			for _, t := range ccomp.ChildrenByDep(model.DepMark, model.DepAdvmod, model.DepCC) {
				if effectConnectors[t.Lower()] {
					marker = t
					break
				}
			}
		}
		if marker == nil {
			continue
		}

		unseen := filterTokens(unseenAll, func(t *model.Token) bool { return t != marker })
		seen := filterTokens(ccomp.Subtree(), func(t *model.Token) bool { return t != marker })
		main := candidate{text: renderSpan(unseen, true), connector: c.connector, alternative: c.alternative}
		sub := candidate{text: renderSpan(seen, true), connector: marker.Lower()}
		if !hasContent(main.text) || !hasContent(sub.text) {
			continue
		}
		return []candidate{main, sub}, true
	}
	return nil, false
}

func hasSubject(verb *model.Token) bool {
	return verb.HasChild(model.DepSubj, model.DepSubjPass, model.DepCSubj, model.DepExpl)
}

// connectorOf finds a mark/advmod child of the clause naming a connector
func connectorOf(verb *model.Token, allowed map[string]bool) *model.Token {
	for _, t := range verb.ChildrenByDep(model.DepMark, model.DepAdvmod) {
		if allowed[t.Lower()] {
			return t
		}
	}
	return nil
}

func indexSet(tokens []*model.Token) map[int]bool {
	set := make(map[int]bool, len(tokens))
	for _, t := range tokens {
		set[t.Index] = true
	}
	return set
}

func filterTokens(tokens []*model.Token, keep func(*model.Token) bool) []*model.Token {
	var out []*model.Token
	for _, t := range tokens {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// renderSpan joins tokens into clause text. Clause-level connector words
// and dangling punctuation at the edges are dropped. Inside the span,
// connectors attached to a verb are dropped too, unless the span's only
// verb is a lone auxiliary ("is home").
func renderSpan(tokens []*model.Token, stripConnectors bool) string {
	if stripConnectors && loneAuxiliary(tokens) {
		stripConnectors = false
	}
	var kept []*model.Token
	for i, t := range tokens {
		if stripConnectors && clauseConnector(t) {
			continue
		}
		if t.POS == model.POSPunct && (i == 0 || i == len(tokens)-1) {
			continue
		}
		kept = append(kept, t)
	}
	for len(kept) > 0 && isEdgeNoise(kept[0]) {
		kept = kept[1:]
	}
	for len(kept) > 0 && isEdgeNoise(kept[len(kept)-1]) {
		kept = kept[:len(kept)-1]
	}
	return Terminate(model.JoinTokens(kept))
}

// clauseConnector reports a coordinator joining verbs rather than nominals
func clauseConnector(t *model.Token) bool {
	if t.Dep != model.DepCC || !coordinators[t.Lower()] {
		return false
	}
	head := t.Parent()
	return head == nil || head.IsVerb()
}

func isEdgeNoise(t *model.Token) bool {
	if t.POS == model.POSPunct {
		return true
	}
	return coordinators[t.Lower()] && (t.Dep == model.DepCC || t.Dep == model.DepAdvmod || t.Dep == model.DepMark)
}

func loneAuxiliary(tokens []*model.Token) bool {
	verbs := 0
	aux := false
	for _, t := range tokens {
		if t.IsVerb() {
			verbs++
			aux = t.POS == model.POSAux
		}
	}
	return verbs == 1 && aux
}

func hasContent(text string) bool {
	return strings.TrimRight(text, ".!? ") != ""
}

// Terminate normalizes clause text: whitespace collapsed, dangling
// separators removed, and a period appended unless it ends in ! or ?.
func Terminate(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimRight(text, " .,;:")
	text = strings.ReplaceAll(text, " ,", ",")
	if text == "" {
		return ""
	}
	if strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}
