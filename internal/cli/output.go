package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/pipeline"
)

// writeTurtle writes the report's Turtle document to path, or to w when
// path is empty or "-"
func writeTurtle(w io.Writer, path string, r *model.Report) error {
	doc := pipeline.Document(r)
	if path == "" || path == "-" {
		_, err := doc.WriteTo(w)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create turtle file: %w", err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write turtle: %w", err)
	}
	return f.Close()
}

// writeReport writes the JSON report to path
func writeReport(path string, r *model.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printStats(w io.Writer, r *model.Report) {
	s := r.Stats
	fmt.Fprintf(w, "  Sentences:  %d (%d skipped)\n", s.Sentences, s.Skipped)
	fmt.Fprintf(w, "  Clauses:    %d (%d without a verb)\n", s.Clauses, s.EmptyFrames)
	fmt.Fprintf(w, "  Fragments:  %d\n", s.Fragments)
	if s.Dropped+s.UnknownClasses+s.Invalid > 0 {
		fmt.Fprintf(w, "  Degraded:   %d dropped, %d unknown classes, %d invalid\n", s.Dropped, s.UnknownClasses, s.Invalid)
	}
}

// sanitizeFilename turns a narrative subject into a file name stem
func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	if s == "" || s == "." || s == ".." {
		s = "narrative"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// uniqueStem appends -2, -3... to stems already used in a batch
func uniqueStem(used map[string]int, subject string) string {
	stem := sanitizeFilename(subject)
	used[stem]++
	if n := used[stem]; n > 1 {
		return fmt.Sprintf("%s-%d", stem, n)
	}
	return stem
}

func outputPaths(dir, stem string) (turtlePath, reportPath string) {
	return filepath.Join(dir, stem+".ttl"), filepath.Join(dir, stem+".json")
}
