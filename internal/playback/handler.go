package playback

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"interaction-timeline/internal/interaction"
	"interaction-timeline/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MaxScriptBytes caps the size of a submitted script.
const MaxScriptBytes = 1 << 20

// Handler exposes the playback HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Mount registers the sequence routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/sequences", func(r chi.Router) {
		r.Get("/", h.ListSequences)
		r.Post("/", h.CreateSequence)
		r.Route("/{sequence_id}", func(r chi.Router) {
			r.Put("/", h.PutSequence)
			r.Get("/", h.GetSequence)
			r.Delete("/", h.DeleteSequence)
			r.Get("/frames", h.GetFrames)
			r.Get("/frames/{frame}", h.GetFrame)
			r.Get("/at", h.GetAt)
		})
	})
}

// ListSequences handles GET /sequences.
func (h *Handler) ListSequences(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]SequenceID{"sequences": ids})
}

// CreateSequence handles POST /sequences. The body is a YAML or JSON script;
// the sequence gets a generated id.
func (h *Handler) CreateSequence(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, SequenceID(uuid.NewString()))
}

// PutSequence handles PUT /sequences/{sequence_id}, creating or replacing it.
func (h *Handler) PutSequence(w http.ResponseWriter, r *http.Request) {
	id := SequenceID(chi.URLParam(r, "sequence_id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.register(w, r, id)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, id SequenceID) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxScriptBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Info("script rejected, body too large", slog.String("sequence_id", string(id)), slog.Int64("limit", tooLarge.Limit))
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		h.log.Debug("read script body failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sum, created, err := h.svc.Register(id, source)
	if err != nil {
		h.writeError(w, err)
		return
	}

	for _, d := range sum.Diagnostics {
		h.log.Warn("sequence diagnostic",
			slog.String("sequence_id", string(id)),
			slog.String("kind", string(d.Kind)),
			slog.String("element", d.Element),
			slog.String("detail", d.Message))
	}
	h.log.Info("sequence registered",
		slog.String("sequence_id", string(id)),
		slog.Bool("created", created),
		slog.Int("states", len(sum.States)),
		slog.Int("diagnostics", len(sum.Diagnostics)))
	if h.metrics != nil {
		h.metrics.IncSequencesRegistered()
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, sum)
}

// GetSequence handles GET /sequences/{sequence_id}.
func (h *Handler) GetSequence(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Describe(SequenceID(chi.URLParam(r, "sequence_id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

// DeleteSequence handles DELETE /sequences/{sequence_id}.
func (h *Handler) DeleteSequence(w http.ResponseWriter, r *http.Request) {
	id := SequenceID(chi.URLParam(r, "sequence_id"))
	if err := h.svc.Delete(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("sequence deleted", slog.String("sequence_id", string(id)))
	w.WriteHeader(http.StatusNoContent)
}

// GetFrame handles GET /sequences/{sequence_id}/frames/{frame}?fps=.
func (h *Handler) GetFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := strconv.Atoi(chi.URLParam(r, "frame"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	fps, ok := queryInt(r, "fps", 0)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	snap, err := h.svc.Snapshot(SequenceID(chi.URLParam(r, "sequence_id")), frame, fps)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.countFrames(1)
	h.writeSnapshot(w, snap)
}

// GetAt handles GET /sequences/{sequence_id}/at?t=<seconds>&fps=.
func (h *Handler) GetAt(w http.ResponseWriter, r *http.Request) {
	seconds, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	fps, ok := queryInt(r, "fps", 0)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	snap, err := h.svc.SnapshotAt(SequenceID(chi.URLParam(r, "sequence_id")), seconds, fps)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.countFrames(1)
	h.writeSnapshot(w, snap)
}

// GetFrames handles GET /sequences/{sequence_id}/frames?from=&to=&step=&fps=.
// to defaults to the last frame of the sequence.
func (h *Handler) GetFrames(w http.ResponseWriter, r *http.Request) {
	id := SequenceID(chi.URLParam(r, "sequence_id"))
	q := r.URL.Query()

	from, ok1 := queryInt(r, "from", 0)
	step, ok2 := queryInt(r, "step", 1)
	fps, ok3 := queryInt(r, "fps", 0)
	if !ok1 || !ok2 || !ok3 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var to *int
	if q.Has("to") {
		n, err := strconv.Atoi(q.Get("to"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		to = &n
	}

	rng, err := h.svc.Range(id, from, to, step)
	if err != nil {
		h.writeError(w, err)
		return
	}

	start := time.Now()
	snaps, err := h.svc.RenderRange(r.Context(), id, rng, fps)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveRangeRender(time.Since(start))
	}
	h.countFrames(len(snaps))
	h.log.Debug("range rendered",
		slog.String("sequence_id", string(id)),
		slog.Int("from", rng.From),
		slog.Int("to", rng.To),
		slog.Int("frames", len(snaps)))

	h.writeJSON(w, http.StatusOK, map[string]any{
		"range":  rng,
		"frames": snaps,
	})
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, snap interaction.Snapshot) {
	w.Header().Set("X-Timecode", Timecode(snap.Frame, snap.FPS))
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) countFrames(n int) {
	if h.metrics != nil {
		h.metrics.AddFramesEvaluated(n)
	}
}

// writeError maps service errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSequenceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidScript), errors.Is(err, ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, ErrRangeTooLarge):
		status = http.StatusRequestEntityTooLarge
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", slog.String("error", err.Error()))
	} else {
		h.log.Debug("request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("write response failed", slog.String("error", err.Error()))
	}
}

// queryInt returns the integer query parameter key, or fallback when it is
// absent. ok is false when it is present but malformed.
func queryInt(r *http.Request, key string, fallback int) (int, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
