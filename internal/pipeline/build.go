package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/narrtl/internal/cache"
	"github.com/ppiankov/narrtl/internal/llm"
	"github.com/ppiankov/narrtl/internal/metrics"
	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/ontology"
	"github.com/ppiankov/narrtl/internal/parse"
	"github.com/ppiankov/narrtl/internal/worker"
)

// FromConfig wires the dependency source, resolver chain and fetcher
// described by cfg. The returned close function releases the lexicon.
func FromConfig(cfg *model.Config, logger *slog.Logger, m *metrics.Metrics) (*Pipeline, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }
	c := cache.FromConfig(cfg.Cache)
	limiter := worker.NewLimiter(cfg.Parser.RequestsPerSecond, cfg.Parser.Burst)

	var source parse.Source
	if cfg.Parser.ConllU != "" {
		conllu, err := parse.OpenConllU(cfg.Parser.ConllU)
		if err != nil {
			return nil, noop, fmt.Errorf("load parses: %w", err)
		}
		logger.Debug("using pre-parsed sentences", "path", cfg.Parser.ConllU, "sentences", conllu.Len())
		source = conllu
	} else {
		source = parse.NewHTTPSource(cfg.Parser.URL, cfg.Parser.Timeout, limiter, cfg.HTTP.UserAgent)
		if c != nil {
			source = parse.NewCached(source, c, cfg.Cache.DiskTTL)
		}
	}

	var resolver ontology.Resolver
	closeFn := noop
	if cfg.Lexicon.SQLite != "" {
		db, err := ontology.OpenSQLiteLexicon(cfg.Lexicon.SQLite, logger)
		if err != nil {
			return nil, noop, err
		}
		resolver, closeFn = db, db.Close
	} else {
		lex, err := ontology.LoadLexicon(cfg.Lexicon.Path)
		if err != nil {
			return nil, noop, err
		}
		resolver = lex
	}

	if cfg.LLM.Provider != "" {
		classifier, err := llm.NewClassifier(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			_ = closeFn()
			return nil, noop, fmt.Errorf("llm fallback: %w", err)
		}
		logger.Debug("llm class fallback enabled", "provider", classifier.ProviderName())
		resolver = ontology.NewLLMResolver(resolver, classifier, logger)
	}
	if c != nil {
		resolver = ontology.NewCachedResolver(resolver, c, cfg.Cache.MemoryTTL)
	}

	p, err := New(source, resolver, Options{
		Logger:         logger,
		NarratorGender: cfg.Narrator.Gender,
		Validate:       cfg.Output.Validate,
		Metrics:        m,
		Loader:         NewLoader(NewFetcher(cfg.HTTP, limiter)),
	})
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return p, closeFn, nil
}
