// Package api expone el motor por HTTP con chi.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/metrics"
	"pcd-recommender/internal/quality"
	"pcd-recommender/internal/recommender"
	"pcd-recommender/pkg/database"
)

// NotFoundDetail es el único mensaje de error de /recommend.
const NotFoundDetail = "Sorry, no movie found with the specified title."

const (
	defaultTopRated = 10
	maxTopRated     = 500
)

// Engine es lo que los handlers necesitan del motor.
type Engine interface {
	GetRecommendations(title string) ([]recommender.Movie, error)
	TopRated(n int) ([]quality.ScoredMovie, error)
	Stats() (recommender.Stats, error)
	Ready() bool
}

// Forwarder resuelve la consulta en otro proceso. Devuelve el nodo que
// respondió.
type Forwarder interface {
	Recommend(ctx context.Context, title string) ([]recommender.Movie, string, error)
}

// HistoryRecorder recibe cada consulta atendida.
type HistoryRecorder interface {
	Enqueue(doc database.RecommendationDocument) bool
}

// RecommendRequest es el cuerpo de POST /recommend.
type RecommendRequest struct {
	Title string `json:"title" validate:"required"`
}

// ErrorResponse replica el formato {"detail": ...}.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	Mode   string `json:"mode"`
}

type Handler struct {
	engine   Engine
	forward  Forwarder
	history  HistoryRecorder
	validate *validator.Validate
}

type HandlerOption func(*Handler)

// WithForwarder activa el modo remoto.
func WithForwarder(f Forwarder) HandlerOption {
	return func(h *Handler) { h.forward = f }
}

// WithHistory guarda cada consulta en el historial.
func WithHistory(r HistoryRecorder) HandlerOption {
	return func(h *Handler) { h.history = r }
}

func NewHandler(engine Engine, opts ...HandlerOption) *Handler {
	h := &Handler{engine: engine, validate: validator.New()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// -----------------------------------------------------------
// ENDPOINT: POST /recommend
// -----------------------------------------------------------

func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "cuerpo inválido: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "el campo title es obligatorio"})
		return
	}

	ctx := r.Context()
	log := logging.Ctx(ctx)
	start := time.Now()

	transport := "local"
	var (
		recs []recommender.Movie
		node string
		err  error
	)
	if h.forward != nil {
		transport = "remote"
		recs, node, err = h.forward.Recommend(ctx, req.Title)
	} else {
		recs, err = h.engine.GetRecommendations(req.Title)
	}
	elapsed := time.Since(start)

	outcome := recommender.Outcome(err)
	if err == nil && len(recs) == 0 {
		outcome = "empty"
	}
	metrics.RecordRequest(transport, outcome, elapsed)

	switch outcome {
	case "ok", "not_found", "empty":
		log.Debug().Str("title", req.Title).Str("outcome", outcome).Int("resultados", len(recs)).
			Dur("latencia", elapsed).Msg("consulta atendida")
	default:
		log.Error().Err(err).Str("title", req.Title).Str("outcome", outcome).Msg("error en recomendación")
	}

	h.record(ctx, req.Title, outcome, node, recs, elapsed)

	if outcome != "ok" {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: NotFoundDetail})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// record encola el documento del historial, si está habilitado.
func (h *Handler) record(ctx context.Context, title, outcome, node string, recs []recommender.Movie, elapsed time.Duration) {
	if h.history == nil {
		return
	}
	items := make([]database.RecommendedItem, 0, len(recs))
	for _, m := range recs {
		items = append(items, database.RecommendedItem{MovieID: m.ID, Title: m.Title})
	}
	h.history.Enqueue(database.RecommendationDocument{
		RequestID:   logging.RequestIDFromContext(ctx),
		Title:       title,
		Outcome:     outcome,
		Recommended: items,
		Node:        node,
		LatencyMS:   elapsed.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	})
}

// -----------------------------------------------------------
// ENDPOINT: GET /top-rated?n=
// -----------------------------------------------------------

func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	n := defaultTopRated
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxTopRated {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "n debe ser un entero entre 1 y 500"})
			return
		}
		n = v
	}

	top, err := h.engine.TopRated(n)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// -----------------------------------------------------------
// ENDPOINT: GET /stats
// -----------------------------------------------------------

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// -----------------------------------------------------------
// ENDPOINT: GET /health
// -----------------------------------------------------------

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Ready: h.engine.Ready(), Mode: "local"}
	if h.forward != nil {
		resp.Mode = "remote"
	}
	status := http.StatusOK
	if !resp.Ready {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("error escribiendo respuesta")
	}
}
