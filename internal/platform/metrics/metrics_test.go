package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_exposes_collectors(t *testing.T) {
	m := New()
	m.IncSequencesRegistered()
	m.AddFramesEvaluated(7)
	m.ObserveRangeRender(20 * time.Millisecond)

	mw := RequestMiddleware(m)
	ok := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	missing := mw(http.NotFoundHandler())
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	missing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	updated := false
	rec := httptest.NewRecorder()
	m.Handler(func() {
		updated = true
		m.SetSequences(3)
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !updated {
		t.Error("gauge update hook was not called")
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"timeline_requests_total 2",
		"timeline_errors_total 1",
		"timeline_sequences_registered_total 1",
		"timeline_frames_evaluated_total 7",
		"timeline_sequences 3",
		"timeline_range_render_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
