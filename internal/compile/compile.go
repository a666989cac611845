// Package compile turns verb frames and their mention bindings into Turtle
// statements. Templates come from idioms or from the event class of the
// verb; placeholders are resolved against the clause bindings and any
// statement that cannot be fully resolved is dropped.
package compile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/ontology"
	"github.com/ppiankov/narrtl/internal/turtle"
)

// Option configures a Binder or Compiler
type Option func(*settings)

type settings struct {
	newID          func() string
	narratorGender string
}

func newSettings(opts []Option) settings {
	s := settings{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithIDs replaces the URI suffix generator (uuid by default)
func WithIDs(newID func() string) Option {
	return func(s *settings) { s.newID = newID }
}

// WithNarratorGender enables gender agreement when a split event borrows
// its agent from earlier nouns
func WithNarratorGender(gender string) Option {
	return func(s *settings) { s.narratorGender = gender }
}

// prepositions whose objects attach to the event when no idiom applies
var defaultPrepPredicates = map[string]string{
	"to":    ":has_destination",
	"from":  ":has_origin",
	"about": ontology.PredTopic,
}

// predicates copied onto a synthesized governing event
var duplicatedPredicates = map[string]bool{
	ontology.PredText:              true,
	ontology.PredLabel:             true,
	ontology.PredSentiment:         true,
	ontology.PredLocation:          true,
	ontology.PredEarliestBeginning: true,
}

// Input is one clause ready for compilation
type Input struct {
	Frame     *model.Frame
	Text      string // clause text
	Bindings  Bindings
	Carry     model.Carry
	Time      string   // selected time, optionally prefixed "after " or "before "
	Location  string   // selected location text
	Sentiment *float64 // supplied by the caller; the pipeline has no scorer and leaves it nil
}

// Result holds the compiled statements of one clause
type Result struct {
	Statements []model.Statement
	Events     []string // URIs of the events typed by this clause
	Dropped    int      // statements removed for unresolved placeholders
	Unknown    int      // event classes that fell back to the generic class
}

// Fragments renders the statements as Turtle fragments
func (r Result) Fragments() []string {
	return model.Fragments(r.Statements)
}

// Compiler resolves templates into statements
type Compiler struct {
	settings
	resolver ontology.Resolver
	logger   *slog.Logger
}

// NewCompiler creates a compiler
func NewCompiler(resolver ontology.Resolver, logger *slog.Logger, opts ...Option) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{settings: newSettings(opts), resolver: resolver, logger: logger}
}

// scope is the state shared while compiling one verb
type scope struct {
	in       Input
	frame    *model.Frame
	bindings Bindings // the verb's own dictionary
	event    string
	result   *Result
}

// Compile resolves every verb of the clause frame against that verb's own
// bindings. Binding definitions are
// emitted after the event statements; definitions of objects consumed by a
// "be" condition idiom are removed.
func (c *Compiler) Compile(ctx context.Context, in Input) Result {
	var res Result
	if in.Frame.IsEmpty() {
		return res
	}

	discarded := make(map[string]bool)
	for i, f := range in.Frame.Verbs() {
		sc := &scope{in: in, frame: f, bindings: in.Bindings.ForVerb(i), event: ":Event_" + c.newID(), result: &res}
		stmts, condition := c.compileVerb(ctx, sc)
		if condition && f.Lemma == "be" {
			for _, uri := range sc.bindings.Objects.URIs() {
				discarded[uri] = true
			}
		}
		res.Statements = append(res.Statements, stmts...)
	}

	res.Statements = append(res.Statements, definitions(in.Bindings)...)
	res.Statements = dropSubjects(res.Statements, discarded)
	return res
}

func (c *Compiler) compileVerb(ctx context.Context, sc *scope) ([]model.Statement, bool) {
	f := sc.frame
	templates := c.resolver.Idiom(ctx, f.Lemma, f)
	if len(templates) == 0 {
		templates = c.defaultTemplates(ctx, sc)
	}
	templates = append(templates, roleTemplates(templates, sc.bindings)...)

	var stmts []model.Statement
	condition := false
	for _, t := range templates {
		resolved, ok := c.resolve(ctx, sc, t)
		if !ok {
			sc.result.Dropped++
			c.logger.Warn("unresolved placeholder", "clause", sc.in.Text, "lemma", f.Lemma, "marker", t.String())
			continue
		}
		if t.Kind == model.TemplateCondition {
			condition = true
		}
		stmts = append(stmts, resolved...)
	}

	typed := false
	for _, s := range stmts {
		if s.Subject == sc.event {
			typed = true
			break
		}
	}
	if !typed {
		return stmts, condition
	}

	sc.result.Events = append(sc.result.Events, sc.event)
	stmts = append(stmts, c.eventStatements(sc)...)
	return c.split(sc, stmts), condition
}

// defaultTemplates types the event with the verb's class and attaches
// destination, origin and topic prepositions
func (c *Compiler) defaultTemplates(ctx context.Context, sc *scope) []model.Template {
	f := sc.frame
	class := c.eventClass(ctx, sc, f.Lemma)
	obj := model.Term{Kind: model.TermLiteral, Value: class}
	if f.ClausalComplement != nil {
		obj = model.Term{Kind: model.TermClausal, Value: class}
	}
	out := []model.Template{{
		Subject:   model.Term{Kind: model.TermEvent},
		Predicate: ontology.PredType,
		Objects:   []model.Term{obj},
	}}

	seen := make(map[string]bool)
	for _, p := range sc.bindings.Preps {
		pred, ok := defaultPrepPredicates[p.Prep]
		if !ok || seen[p.Prep] {
			continue
		}
		seen[p.Prep] = true
		out = append(out, model.Template{
			Subject:   model.Term{Kind: model.TermEvent},
			Predicate: pred,
			Objects:   []model.Term{{Kind: model.TermPrepObject, Prep: p.Prep}},
		})
	}
	return out
}

// roleTemplates adds agent statements for subjects and objects that no
// template mentions. Condition idioms describe the subject directly and
// get none.
func roleTemplates(templates []model.Template, b Bindings) []model.Template {
	var usesSubj, usesObj bool
	for _, t := range templates {
		if t.Kind == model.TemplateCondition {
			return nil
		}
		for _, term := range append([]model.Term{t.Subject}, t.Objects...) {
			switch term.Kind {
			case model.TermSubject:
				usesSubj = true
			case model.TermObject:
				usesObj = true
			}
		}
	}

	var out []model.Template
	event := model.Term{Kind: model.TermEvent}
	if !usesSubj && len(b.Subjects) > 0 {
		out = append(out, model.Template{Subject: event, Predicate: ontology.PredActiveAgent, Objects: []model.Term{{Kind: model.TermSubject}}})
	}
	if !usesObj && len(b.Objects) > 0 {
		out = append(out, model.Template{Subject: event, Predicate: ontology.PredAffectedAgent, Objects: []model.Term{{Kind: model.TermObject}}})
	}
	return out
}

// resolve substitutes every placeholder of a template. It reports false
// when any placeholder has no candidate, in which case nothing is emitted.
func (c *Compiler) resolve(ctx context.Context, sc *scope, t model.Template) ([]model.Statement, bool) {
	if t.Kind == model.TemplateCondition {
		return c.resolveCondition(ctx, sc, t)
	}

	subjects, ok := c.resolveTerm(ctx, sc, t.Subject)
	if !ok {
		return nil, false
	}

	var objects []string
	clausal := false
	for _, term := range t.Objects {
		if term.Kind == model.TermClausal {
			classes := c.resolveClausal(ctx, sc, term)
			clausal = len(classes) == 2 && len(t.Objects) == 1
			objects = append(objects, classes...)
			continue
		}
		vals, ok := c.resolveTerm(ctx, sc, term)
		if !ok {
			return nil, false
		}
		objects = append(objects, vals...)
	}

	out := make([]model.Statement, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, model.Statement{
			Subject:   s,
			Predicate: t.Predicate,
			Objects:   append([]string(nil), objects...),
			Clausal:   clausal,
		})
	}
	return out, true
}

// resolveCondition rewrites a subject-attribute idiom into one statement
// per bound subject
func (c *Compiler) resolveCondition(ctx context.Context, sc *scope, t model.Template) ([]model.Statement, bool) {
	subjects := sc.bindings.Subjects.URIs()
	if len(subjects) == 0 || len(t.Objects) == 0 {
		return nil, false
	}
	values, ok := c.resolveTerm(ctx, sc, t.Objects[0])
	if !ok {
		return nil, false
	}
	pred := ontology.AttributePredicate(t.Attribute)
	if pred == "" {
		pred = ontology.PredCondition
	}
	out := make([]model.Statement, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, model.Statement{Subject: s, Predicate: pred, Objects: values})
	}
	return out, true
}

func (c *Compiler) resolveTerm(ctx context.Context, sc *scope, term model.Term) ([]string, bool) {
	var out []string
	switch term.Kind {
	case model.TermLiteral:
		out = []string{term.Value}
	case model.TermEvent:
		out = []string{sc.event}
	case model.TermSubject:
		out = sc.bindings.Subjects.URIs()
	case model.TermObject:
		out = c.filterObjects(ctx, sc, sc.bindings.Objects, term.Filter)
	case model.TermPrepObject:
		var scoped model.Bindings
		for _, p := range sc.bindings.Preps {
			if term.Prep == "" || p.Prep == term.Prep {
				scoped = scoped.Add(p.Binding)
			}
		}
		out = c.filterObjects(ctx, sc, scoped, term.Filter)
	case model.TermClausal:
		out = c.resolveClausal(ctx, sc, term)
	}
	return out, len(out) > 0
}

// filterObjects applies a dobj/pobj restriction to bound objects
func (c *Compiler) filterObjects(ctx context.Context, sc *scope, objects model.Bindings, filter model.ObjectFilter) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, o := range objects {
		switch filter {
		case model.FilterVerb:
			if class := c.resolver.EventClass(ctx, o.Head); class != "" && class != ontology.Unknown {
				add(class)
			}
		case model.FilterAgent:
			if agentEntities[o.Entity] {
				add(o.URI)
			}
		case model.FilterLocation:
			if locationEntities[o.Entity] {
				add(o.URI)
			}
		default:
			add(o.URI)
		}
	}
	return out
}

// resolveClausal returns the governing class and, unless the term is the
// single-slot form or the frame has no complement, the complement's class
func (c *Compiler) resolveClausal(ctx context.Context, sc *scope, term model.Term) []string {
	comp := sc.frame.ClausalComplement
	if term.Ignore || comp == nil {
		return []string{term.Value}
	}
	second := ontology.TypeClass(c.resolver.Idiom(ctx, comp.Lemma, comp))
	if second == "" {
		second = c.eventClass(ctx, sc, comp.Lemma)
	}
	return []string{term.Value, second}
}

func (c *Compiler) eventClass(ctx context.Context, sc *scope, lemma string) string {
	class := c.resolver.EventClass(ctx, lemma)
	if class == "" || class == ontology.Unknown {
		sc.result.Unknown++
		c.logger.Warn("unclassified verb", "clause", sc.in.Text, "lemma", lemma, "fallback", ontology.ClassEvent)
		return ontology.ClassEvent
	}
	return class
}

// eventStatements describes a typed event: its text, label, tense,
// negation, time, location and sentiment
func (c *Compiler) eventStatements(sc *scope) []model.Statement {
	f, e := sc.frame, sc.event
	stmt := func(pred string, objs ...string) model.Statement {
		return model.Statement{Subject: e, Predicate: pred, Objects: objs}
	}

	out := []model.Statement{
		stmt(ontology.PredText, turtle.Literal(strings.TrimSpace(sc.in.Text))),
		stmt(ontology.PredLabel, turtle.Literal(LabelFor(f).String())),
	}
	if f.Tense != "" {
		out = append(out, stmt(ontology.PredTense, turtle.Literal(string(f.Tense))))
	}
	if f.Negation {
		out = append(out, stmt(ontology.PredNegated, turtle.True))
	}
	if t := sc.in.Time; t != "" {
		switch {
		case strings.HasPrefix(t, "after "):
			out = append(out, stmt(ontology.PredEarliestBeginning, turtle.Literal(strings.TrimPrefix(t, "after "))))
		case strings.HasPrefix(t, "before "):
			out = append(out, stmt(ontology.PredLatestEnd, turtle.Literal(strings.TrimPrefix(t, "before "))))
		default:
			out = append(out, stmt(ontology.PredTime, turtle.Literal(t)))
		}
	}
	if uri := ontology.LocalName(sc.in.Location); uri != "" {
		out = append(out, stmt(ontology.PredLocation, uri))
	}
	if sc.in.Sentiment != nil {
		out = append(out, stmt(ontology.PredSentiment, turtle.Decimal(*sc.in.Sentiment)))
	}
	return out
}

// split synthesizes the governing event of a two-slot clausal type
// statement. The governing event takes the first class and the subjects;
// the original event keeps the second class and becomes its topic.
// "attempt" keeps both classes on one event.
func (c *Compiler) split(sc *scope, stmts []model.Statement) []model.Statement {
	idx := -1
	for i, s := range stmts {
		if s.Clausal && s.Subject == sc.event {
			idx = i
			break
		}
	}
	if idx < 0 {
		return stmts
	}
	if sc.frame.Lemma == "attempt" {
		stmts[idx].Clausal = false
		return stmts
	}

	e := sc.event
	g := ":Event_" + c.newID()
	first, second := stmts[idx].Objects[0], stmts[idx].Objects[1]
	subjects := sc.bindings.Subjects.URIs()
	isSubject := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		isSubject[s] = true
	}

	out := make([]model.Statement, 0, len(stmts)+8)
	for i, s := range stmts {
		switch {
		case i == idx:
			out = append(out,
				model.Statement{Subject: g, Predicate: ontology.PredType, Objects: []string{first}},
				model.Statement{Subject: e, Predicate: ontology.PredType, Objects: []string{second}})
		case s.Subject != e:
			out = append(out, s)
		case duplicatedPredicates[s.Predicate]:
			copied := s
			copied.Subject = g
			copied.Objects = append([]string(nil), s.Objects...)
			out = append(out, s, copied)
		case s.Predicate == ontology.PredLatestEnd:
			out = append(out,
				model.Statement{Subject: e, Predicate: ontology.PredTime, Objects: s.Objects},
				model.Statement{Subject: g, Predicate: ontology.PredLatestEnd, Objects: s.Objects})
		case s.Predicate == ontology.PredActiveAgent && allIn(s.Objects, isSubject):
			// subjects move to the governing event below
		default:
			out = append(out, s)
		}
	}

	out = append(out, model.Statement{Subject: g, Predicate: ontology.PredTopic, Objects: []string{e}})
	if len(subjects) > 0 {
		out = append(out, model.Statement{Subject: g, Predicate: ontology.PredActiveAgent, Objects: subjects})
	} else if sc.frame.Passive {
		if agent, ok := c.fallbackAgent(sc); ok {
			out = append(out,
				model.Statement{Subject: e, Predicate: ontology.PredActiveAgent, Objects: []string{agent}},
				model.Statement{Subject: g, Predicate: ontology.PredAffectedAgent, Objects: []string{agent}})
		}
	}
	sc.result.Events = append(sc.result.Events, g)
	return out
}

// fallbackAgent picks the agent of a passive control verb: its receiver in
// the same clause, else the latest earlier noun agreeing with the
// narrator's gender
func (c *Compiler) fallbackAgent(sc *scope) (string, bool) {
	if len(sc.bindings.Receivers) > 0 {
		return sc.bindings.Receivers[0].URI, true
	}
	for _, n := range sc.in.Carry.LastNouns {
		if timeEntities[n.Entity] || locationEntities[n.Entity] {
			continue
		}
		if c.narratorGender != "" && n.Gender != "" && n.Gender != c.narratorGender {
			continue
		}
		return n.URI, true
	}
	return "", false
}

func allIn(values []string, set map[string]bool) bool {
	for _, v := range values {
		if !set[v] {
			return false
		}
	}
	return len(values) > 0
}

// definitions collects the type and label statements of every binding
func definitions(b Bindings) []model.Statement {
	var out []model.Statement
	seen := make(map[string]bool)
	for _, x := range b.all() {
		for _, d := range x.Definitions {
			key := d.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
	}
	return out
}

// dropSubjects removes statements about discarded URIs
func dropSubjects(stmts []model.Statement, discarded map[string]bool) []model.Statement {
	if len(discarded) == 0 {
		return stmts
	}
	out := stmts[:0]
	for _, s := range stmts {
		if !discarded[s.Subject] {
			out = append(out, s)
		}
	}
	return out
}
