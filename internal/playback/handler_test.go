package playback

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interaction-timeline/internal/interaction"
	"interaction-timeline/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestRouter(t *testing.T, opts Options, m *metrics.Metrics) *chi.Mux {
	t.Helper()
	svc := newTestService(t, opts)
	log := slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	r := chi.NewRouter()
	NewHandler(svc, log, m).Mount(r)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandler_CreateSequence(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	rec := do(r, http.MethodPost, "/sequences", demoScript)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	sum := decode[Summary](t, rec)
	if _, err := uuid.Parse(string(sum.ID)); err != nil {
		t.Errorf("id %q is not a uuid: %v", sum.ID, err)
	}

	list := decode[map[string][]SequenceID](t, do(r, http.MethodGet, "/sequences", ""))
	if len(list["sequences"]) != 2 {
		t.Errorf("list = %v", list)
	}
}

func TestHandler_PutSequence(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	if rec := do(r, http.MethodPut, "/sequences/fresh", demoScript); rec.Code != http.StatusCreated {
		t.Errorf("new PUT: expected 201, got %d", rec.Code)
	}
	if rec := do(r, http.MethodPut, "/sequences/fresh", demoScript); rec.Code != http.StatusOK {
		t.Errorf("replacing PUT: expected 200, got %d", rec.Code)
	}

	rec := do(r, http.MethodPut, "/sequences/warned", danglingScript)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if sum := decode[Summary](t, rec); len(sum.Diagnostics) != 1 || sum.Diagnostics[0].Kind != interaction.DanglingStateRef {
		t.Errorf("diagnostics = %v", sum.Diagnostics)
	}
}

func TestHandler_PutSequence_bad_request(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	rec := do(r, http.MethodPut, "/sequences/bad", "title: [unterminated")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); !strings.Contains(body["error"], "invalid script") {
		t.Errorf("error body = %v", body)
	}
	if rec := do(r, http.MethodGet, "/sequences/bad", ""); rec.Code != http.StatusNotFound {
		t.Errorf("rejected script should not be stored, GET gave %d", rec.Code)
	}
}

func TestHandler_PutSequence_too_large(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	body := "title: " + strings.Repeat("x", MaxScriptBytes)
	if rec := do(r, http.MethodPut, "/sequences/huge", body); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestHandler_GetSequence(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	rec := do(r, http.MethodGet, "/sequences/demo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sum := decode[Summary](t, rec); sum.DurationFrames != 121 || sum.ID != "demo" {
		t.Errorf("summary = %+v", sum)
	}
	if rec := do(r, http.MethodGet, "/sequences/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_DeleteSequence(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	if rec := do(r, http.MethodDelete, "/sequences/demo", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(r, http.MethodDelete, "/sequences/demo", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GetFrame(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	rec := do(r, http.MethodGet, "/sequences/demo/frames/150?fps=30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Timecode"); got != "00:05:00" {
		t.Errorf("X-Timecode = %q", got)
	}
	snap := decode[interaction.Snapshot](t, rec)
	q, ok := snap.Message("q")
	if !ok || !q.FadedOut || q.Opacity != interaction.FadeOutDimming {
		t.Errorf("q = %+v, want ghosted", q)
	}

	for _, target := range []string{
		"/sequences/demo/frames/abc",
		"/sequences/demo/frames/1?fps=fast",
		"/sequences/demo/at?t=soon",
	} {
		if rec := do(r, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
	if rec := do(r, http.MethodGet, "/sequences/nope/frames/1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GetAt(t *testing.T) {
	r := newTestRouter(t, Options{}, nil)

	rec := do(r, http.MethodGet, "/sequences/demo/at?t=3&fps=30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	snap := decode[interaction.Snapshot](t, rec)
	if snap.Frame != 90 || snap.TokenCounter.Tokens != 400 {
		t.Errorf("snapshot frame %d tokens %+v", snap.Frame, snap.TokenCounter)
	}
}

func TestHandler_GetFrames(t *testing.T) {
	m := metrics.New()
	r := newTestRouter(t, Options{MaxFrames: 20}, m)

	rec := do(r, http.MethodGet, "/sequences/demo/frames?from=0&step=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	body := decode[struct {
		Range  FrameRange             `json:"range"`
		Frames []interaction.Snapshot `json:"frames"`
	}](t, rec)
	if body.Range.To != 120 || len(body.Frames) != 13 {
		t.Errorf("range %+v with %d frames", body.Range, len(body.Frames))
	}
	if body.Frames[12].Frame != 120 {
		t.Errorf("last frame = %d", body.Frames[12].Frame)
	}

	if rec := do(r, http.MethodGet, "/sequences/demo/frames?from=0&to=100", ""); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/sequences/demo/frames?from=10&to=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/sequences/nope/frames", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	extremes := []struct {
		query string
		want  int
	}{
		{query: "from=0&to=9223372036854775807&step=9223372036854775807", want: http.StatusOK},
		{query: "from=-2&to=9223372036854775807", want: http.StatusBadRequest},
		{query: "from=-9223372036854775808&to=9223372036854775807", want: http.StatusBadRequest},
		{query: "from=0&to=9223372036854775808", want: http.StatusBadRequest},
	}
	for _, tt := range extremes {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(r, http.MethodGet, "/sequences/demo/frames?"+tt.query, "")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
		})
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == "timeline_frames_evaluated_total" {
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 15 {
				t.Errorf("frames evaluated = %v, want 15", got)
			}
			return
		}
	}
	t.Error("frames evaluated counter not gathered")
}
