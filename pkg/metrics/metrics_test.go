package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesPipelineCounters(t *testing.T) {
	m := New()
	m.DocumentsProcessed.WithLabelValues("pdf_text").Inc()
	m.PipelineErrors.WithLabelValues("extraction").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`expense_bot_documents_processed_total{kind="pdf_text"} 1`,
		`expense_bot_pipeline_errors_total{kind="extraction"} 2`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
