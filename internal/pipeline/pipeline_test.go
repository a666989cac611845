package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/narrtl/internal/metrics"
	"github.com/ppiankov/narrtl/internal/ontology"
	"github.com/ppiankov/narrtl/internal/parse"
	"github.com/ppiankov/narrtl/internal/turtle"
)

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	lex, err := ontology.LoadLexicon("../../testdata/lexicon.yaml")
	require.NoError(t, err)
	src, err := parse.OpenConllU("../../testdata/narrative.conllu")
	require.NoError(t, err)

	n := 0
	opts.IDs = func() string {
		n++
		return strconv.Itoa(n)
	}
	p, err := New(src, lex, opts)
	require.NoError(t, err)
	return p
}

func TestSegment(t *testing.T) {
	p := newPipeline(t, Options{})
	got := p.Segment("In 1990, she moved to Poland. She was forced to leave her home.\n\nHello there!")
	assert.Equal(t, []string{
		"In 1990, she moved to Poland.",
		"She was forced to leave her home.",
		"Hello there!",
	}, got)
	assert.Empty(t, p.Segment("  \n\n "))
}

func TestProcessNarrative_CarriesTimeAndLocation(t *testing.T) {
	p := newPipeline(t, Options{})
	report, err := p.ProcessNarrative(context.Background(), &Narrative{
		Subject: "migration",
		Text:    "In 1990, she moved to Poland. She was forced to leave her home. In the following year, they settled in Warsaw.",
	})
	require.NoError(t, err)

	require.Len(t, report.Sentences, 3)
	assert.Equal(t, 3, report.Stats.Sentences)
	assert.Zero(t, report.Stats.Skipped)
	assert.False(t, report.ProcessedAt.IsZero())

	assert.Equal(t, "1990", report.Sentences[0].Time)
	assert.Equal(t, "Poland", report.Sentences[0].Location)
	assert.Equal(t, "1990", report.Sentences[1].Time)
	assert.Equal(t, "Poland", report.Sentences[1].Location)
	assert.Equal(t, "1991", report.Sentences[2].Time)
	assert.Equal(t, "Warsaw", report.Sentences[2].Location)

	first := strings.Join(report.Sentences[0].Clauses[0].Fragments, "\n")
	assert.Contains(t, first, ontology.PredTime+" "+turtle.Literal("1990"))
	assert.Contains(t, first, ontology.PredLocation+" :Poland")

	last := strings.Join(report.Sentences[2].Clauses[0].Fragments, "\n")
	assert.Contains(t, last, ontology.PredTime+" "+turtle.Literal("1991"))
	assert.Contains(t, last, "a :Residence")

	assert.Equal(t, report.Stats.Fragments, len(report.Fragments()))
	assert.NotZero(t, Document(report).Len())
}

func TestProcessNarrative_SkipsUnparsedSentences(t *testing.T) {
	m := metrics.New()
	p := newPipeline(t, Options{Metrics: m})
	report, err := p.ProcessNarrative(context.Background(), &Narrative{
		Text: "Mary went to the store. Nobody parsed this one. Hello there!",
	})
	require.NoError(t, err)

	require.Len(t, report.Sentences, 3)
	assert.Equal(t, 1, report.Stats.Skipped)
	assert.Equal(t, 1, report.Stats.EmptyFrames)
	assert.True(t, report.Sentences[1].Skipped)
	assert.Contains(t, report.Sentences[1].Error, "no parse available")

	assert.NotEmpty(t, report.Sentences[0].Clauses[0].Fragments)
	assert.Empty(t, report.Sentences[2].Clauses[0].Fragments)
}

func TestProcessNarrative_Coordination(t *testing.T) {
	p := newPipeline(t, Options{})
	report, err := p.ProcessNarrative(context.Background(), &Narrative{
		Text: "Mary went to the store and took the bus home.",
	})
	require.NoError(t, err)

	require.Len(t, report.Sentences, 1)
	clauses := report.Sentences[0].Clauses
	require.Len(t, clauses, 2)
	assert.Equal(t, "Mary went to the store.", clauses[0].Clause.Text)
	assert.Equal(t, "Mary took the bus home.", clauses[1].Clause.Text)
	assert.Equal(t, 2, report.Stats.Clauses)
}

func TestProcessNarrative_Cancelled(t *testing.T) {
	p := newPipeline(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessNarrative(ctx, &Narrative{Text: "Mary went to the store."})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvert_HTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopping-trip.html")
	doc := `<html><head><title>ignored</title></head><body>
<p>Mary went to the store.</p><script>var x = "no";</script></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p := newPipeline(t, Options{})
	report, err := p.Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "shopping trip", report.Subject)
	assert.Equal(t, path, report.Source)
	require.Len(t, report.Sentences, 1)
	assert.Equal(t, "Mary went to the store.", report.Sentences[0].Text)
}

func TestConvert_MissingFile(t *testing.T) {
	p := newPipeline(t, Options{})
	_, err := p.Convert(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
