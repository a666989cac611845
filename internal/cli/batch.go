package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/narrtl/internal/pipeline"
	"github.com/ppiankov/narrtl/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Convert many narratives in parallel",
	Long: `Batch converts every narrative listed in a file (one path or URL per
line, # comments allowed). Narratives run concurrently; the sentences of
each narrative are processed in order. For each narrative a .ttl and a
.json report are written to --output-dir.

Example:
  narrtl batch narratives.txt --concurrency 8 --output-dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "concurrent narratives (default: concurrency.narratives)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./narrtl-out", "output directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Narratives = concurrency
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, closeFn, err := pipeline.FromConfig(cfg, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Narratives, nil)
	results, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	failures := 0
	used := make(map[string]int)
	for _, res := range results {
		if res.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Source, res.Error)
			continue
		}
		ttl, js := outputPaths(outputDir, uniqueStem(used, res.Report.Subject))
		if err := writeTurtle(nil, ttl, res.Report); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Source, err)
			continue
		}
		if err := writeReport(js, res.Report); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Source, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%d fragments) -> %s\n", res.Source, res.Report.Stats.Fragments, ttl)
	}

	fmt.Fprintf(os.Stderr, "\n  Total:     %d narratives\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(results)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)

	if failures > 0 && failures == len(results) {
		return fmt.Errorf("all %d narratives failed", failures)
	}
	return nil
}
