package worker

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/narrtl/internal/model"
)

// Converter turns one narrative source (file path or URL) into a report
type Converter interface {
	Convert(ctx context.Context, source string) (*model.Report, error)
}

// ConvertJob converts one narrative
type ConvertJob struct {
	Index     int
	Source    string
	Converter Converter
}

// Execute implements Job
func (j *ConvertJob) Execute(ctx context.Context) Result {
	start := time.Now()
	report, err := j.Converter.Convert(ctx, j.Source)
	return &ConvertResult{
		Index:    j.Index,
		Source:   j.Source,
		Report:   report,
		Error:    err,
		Duration: time.Since(start),
	}
}

// ConvertResult is the outcome of a ConvertJob
type ConvertResult struct {
	Index    int
	Source   string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError implements Result
func (r *ConvertResult) GetError() error {
	return r.Error
}

// BatchProcessor converts independent narratives concurrently. Sentences
// within one narrative are always processed in order by its converter.
type BatchProcessor struct {
	converter   Converter
	concurrency int
	logger      *slog.Logger
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(converter Converter, concurrency int, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		converter:   converter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessSources converts every source and returns one result per source
// in input order. Sources not started before cancellation carry ctx.Err().
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*ConvertResult {
	if len(sources) == 0 {
		return []*ConvertResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for i, source := range sources {
		pool.Submit(&ConvertJob{Index: i, Source: source, Converter: b.converter})
	}

	out := make([]*ConvertResult, len(sources))
	for _, r := range pool.Wait() {
		res := r.(*ConvertResult)
		out[res.Index] = res
		if res.Error != nil {
			b.logger.Warn("narrative failed", "source", res.Source, "error", res.Error)
		} else {
			b.logger.Debug("narrative converted", "source", res.Source, "duration", res.Duration)
		}
	}
	for i, res := range out {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &ConvertResult{Index: i, Source: sources[i], Error: err}
		}
	}
	return out
}

// ProcessFile reads sources from a list file and converts them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ConvertResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads narrative paths or URLs, one per line. Blank
// lines and # comments are skipped; duplicates keep their first position.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return sources, nil
}
