// Package pipeline converts narratives into Turtle. Sentences are processed
// in order; the time, location and nouns of a converted sentence carry
// forward to the next one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/ppiankov/narrtl/internal/clause"
	"github.com/ppiankov/narrtl/internal/compile"
	"github.com/ppiankov/narrtl/internal/frame"
	"github.com/ppiankov/narrtl/internal/metrics"
	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/ontology"
	"github.com/ppiankov/narrtl/internal/parse"
	"github.com/ppiankov/narrtl/internal/timeloc"
	"github.com/ppiankov/narrtl/internal/turtle"
)

// Options tune a Pipeline
type Options struct {
	Logger         *slog.Logger
	NarratorGender string
	Validate       bool             // drop fragments that fail Turtle parsing
	Metrics        *metrics.Metrics // may be nil
	Loader         *Loader          // defaults to files only
	IDs            func() string    // URI suffix generator; uuid when nil
}

// Pipeline orchestrates sentence conversion
type Pipeline struct {
	source     parse.Source
	decomposer *clause.Decomposer
	extractor  *frame.Extractor
	binder     *compile.Binder
	compiler   *compile.Compiler
	tokenizer  *sentences.DefaultSentenceTokenizer
	loader     *Loader
	metrics    *metrics.Metrics
	validate   bool
	logger     *slog.Logger
}

// New creates a pipeline over a dependency source and a class resolver
func New(source parse.Source, resolver ontology.Resolver, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}
	loader := opts.Loader
	if loader == nil {
		loader = NewLoader(nil)
	}

	copts := []compile.Option{compile.WithNarratorGender(opts.NarratorGender)}
	if opts.IDs != nil {
		copts = append(copts, compile.WithIDs(opts.IDs))
	}

	return &Pipeline{
		source:     source,
		decomposer: clause.NewDecomposer(source, logger),
		extractor:  frame.NewExtractor(),
		binder:     compile.NewBinder(resolver, logger, copts...),
		compiler:   compile.NewCompiler(resolver, logger, copts...),
		tokenizer:  tokenizer,
		loader:     loader,
		metrics:    opts.Metrics,
		validate:   opts.Validate,
		logger:     logger,
	}, nil
}

// Convert loads a narrative from a file or URL and processes it
func (p *Pipeline) Convert(ctx context.Context, source string) (*model.Report, error) {
	n, err := p.loader.Load(ctx, source)
	if err != nil {
		p.metrics.ObserveFailure()
		return nil, err
	}
	return p.ProcessNarrative(ctx, n)
}

// ProcessNarrative converts every sentence of n. A sentence that fails to
// parse or decompose is skipped and counted; only cancellation aborts.
func (p *Pipeline) ProcessNarrative(ctx context.Context, n *Narrative) (*model.Report, error) {
	start := time.Now()
	report := &model.Report{Subject: n.Subject, Source: n.Source}

	var carry model.Carry
	for i, text := range p.Segment(n.Text) {
		if err := ctx.Err(); err != nil {
			p.metrics.ObserveFailure()
			return nil, err
		}
		report.Stats.Sentences++

		res, next, stats, err := p.processSentence(ctx, i, text, carry)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				p.metrics.ObserveFailure()
				return nil, ctxErr
			}
			p.logger.Warn("sentence skipped", "sentence", text, "error", err)
			report.Stats.Skipped++
			report.Sentences = append(report.Sentences, model.SentenceResult{
				Index: i, Text: text, Skipped: true, Error: err.Error(),
			})
			continue
		}

		report.Stats.Add(stats)
		report.Sentences = append(report.Sentences, res)
		carry = next
	}

	report.ProcessedAt = time.Now().UTC()
	p.metrics.ObserveReport(report, time.Since(start))
	p.logger.Debug("narrative converted", "subject", n.Subject,
		"sentences", report.Stats.Sentences, "fragments", report.Stats.Fragments)
	return report, nil
}

// Segment splits text into sentences. Blank lines always end a sentence.
func (p *Pipeline) Segment(text string) []string {
	var out []string
	for _, para := range paragraphsOf(text) {
		for _, s := range p.tokenizer.Tokenize(para) {
			if t := strings.TrimSpace(s.Text); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// processSentence selects time and location on the whole sentence, then
// converts each clause with a carry that accumulates the clause nouns
func (p *Pipeline) processSentence(ctx context.Context, index int, text string, carry model.Carry) (model.SentenceResult, model.Carry, model.Stats, error) {
	var stats model.Stats
	res := model.SentenceResult{Index: index, Text: text}

	tree, err := p.source.Parse(ctx, text)
	if err != nil {
		return res, carry, stats, fmt.Errorf("parse sentence: %w", err)
	}
	full := p.extractor.Extract(tree)
	entities := tree.Entities()
	res.Time = timeloc.SelectTime(full, entities, carry.PriorTime)
	res.Location = timeloc.SelectLocation(full, entities, carry.PriorLocation)

	clauses, err := p.decomposer.Decompose(ctx, text)
	if err != nil {
		return res, carry, stats, fmt.Errorf("decompose: %w", err)
	}

	local := carry
	for _, c := range clauses {
		cr, next, err := p.processClause(ctx, c, local, res.Time, res.Location, &stats)
		if err != nil {
			return res, carry, stats, err
		}
		res.Clauses = append(res.Clauses, cr)
		local = next
	}

	local.PriorTime, local.PriorLocation = res.Time, res.Location
	return res, local, stats, nil
}

func (p *Pipeline) processClause(ctx context.Context, c model.Clause, carry model.Carry, when, where string, stats *model.Stats) (model.ClauseResult, model.Carry, error) {
	tree, err := p.source.Parse(ctx, c.Text)
	if err != nil {
		return model.ClauseResult{}, carry, fmt.Errorf("parse clause %q: %w", c.Text, err)
	}
	f := p.extractor.Extract(tree)
	stats.Clauses++

	cr := model.ClauseResult{Clause: c, Frame: f, Fragments: []string{}}
	if f.IsEmpty() {
		stats.EmptyFrames++
		p.logger.Debug("clause without verb", "clause", c.Text)
		return cr, carry, nil
	}

	bindings := p.binder.Bind(ctx, f, carry)
	out := p.compiler.Compile(ctx, compile.Input{
		Frame:    f,
		Text:     c.Text,
		Bindings: bindings,
		Carry:    carry,
		Time:     when,
		Location: where,
	})
	stats.Dropped += out.Dropped
	stats.UnknownClasses += out.Unknown + bindings.Unknown

	for _, frag := range out.Fragments() {
		if p.validate {
			if err := turtle.Validate(frag); err != nil {
				stats.Invalid++
				p.logger.Warn("invalid fragment dropped", "clause", c.Text, "error", err)
				continue
			}
		}
		cr.Fragments = append(cr.Fragments, frag)
	}
	stats.Fragments += len(cr.Fragments)

	return cr, carry.WithNouns(bindings.Candidates()), nil
}

// Document assembles the fragments of a report
func Document(r *model.Report) *turtle.Document {
	doc := turtle.NewDocument()
	doc.Add(r.Fragments()...)
	return doc
}
