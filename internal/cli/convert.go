package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/narrtl/internal/pipeline"
)

var (
	outTurtle      string
	outReport      string
	convertTimeout time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|url>",
	Short: "Convert one narrative to Turtle",
	Long: `Convert reads a narrative from a text or HTML file, or from an http(s)
URL, and writes the Turtle document to stdout or --out.

Example:
  narrtl convert story.txt --conllu story.conllu --lexicon lexicon.yaml
  narrtl convert https://example.com/story.html --out story.ttl --report story.json`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&outTurtle, "out", "o", "", "Turtle output path (default: stdout)")
	convertCmd.Flags().StringVar(&outReport, "report", "", "JSON report path (optional)")
	convertCmd.Flags().DurationVar(&convertTimeout, "timeout", 5*time.Minute, "overall conversion timeout")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), convertTimeout)
	defer cancel()

	p, closeFn, err := pipeline.FromConfig(cfg, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	report, err := p.Convert(ctx, args[0])
	if err != nil {
		return fmt.Errorf("convert failed: %w", err)
	}

	if err := writeTurtle(cmd.OutOrStdout(), outTurtle, report); err != nil {
		return err
	}
	if outReport != "" {
		if err := writeReport(outReport, report); err != nil {
			return err
		}
	}

	if cfg.Output.Verbose || outTurtle != "" {
		fmt.Fprintf(os.Stderr, "Converted %s\n", report.Subject)
		printStats(os.Stderr, report)
	}
	return nil
}
