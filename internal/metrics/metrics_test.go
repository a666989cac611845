package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/narrtl/internal/model"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveReport(t *testing.T) {
	m := New()
	m.ObserveReport(&model.Report{Stats: model.Stats{
		Sentences: 3, Skipped: 1, Clauses: 4, Fragments: 20, Dropped: 2, Invalid: 1,
	}}, 150*time.Millisecond)
	m.ObserveFailure()

	body := scrape(t, m)
	assert.Contains(t, body, `narrtl_narratives_total{result="ok"} 1`)
	assert.Contains(t, body, `narrtl_narratives_total{result="error"} 1`)
	assert.Contains(t, body, `narrtl_sentences_total{outcome="converted"} 2`)
	assert.Contains(t, body, `narrtl_sentences_total{outcome="skipped"} 1`)
	assert.Contains(t, body, "narrtl_fragments_total 20")
	assert.Contains(t, body, `narrtl_degradations_total{kind="dropped_statement"} 2`)
	assert.Contains(t, body, "narrtl_narrative_duration_seconds_count 1")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReport(&model.Report{}, time.Second)
		m.ObserveFailure()
	})
}
