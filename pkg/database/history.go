package database

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/metrics"
)

// RecommendationSink es lo que HistoryWriter necesita del Store.
type RecommendationSink interface {
	SaveRecommendation(ctx context.Context, doc RecommendationDocument) error
}

// HistoryWriter guarda el historial de consultas fuera del camino de la
// respuesta HTTP. Enqueue nunca bloquea: si la cola está llena el
// documento se descarta. Serve implementa suture.Service.
type HistoryWriter struct {
	sink    RecommendationSink
	queue   chan RecommendationDocument
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewHistoryWriter crea el writer con una cola de queueSize documentos.
// El breaker se abre tras trip fallas consecutivas y reintenta a los 30s.
func NewHistoryWriter(sink RecommendationSink, queueSize int, trip uint32) *HistoryWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if trip == 0 {
		trip = 5
	}
	log := logging.With().Str("component", "history").Logger()

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mongo-history",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("de", from.String()).Str("a", to.String()).
				Msg("cambio de estado del circuit breaker")
		},
	})

	return &HistoryWriter{
		sink:    sink,
		queue:   make(chan RecommendationDocument, queueSize),
		breaker: cb,
	}
}

// Enqueue agrega un documento a la cola. Devuelve false si se descartó.
func (w *HistoryWriter) Enqueue(doc RecommendationDocument) bool {
	select {
	case w.queue <- doc:
		return true
	default:
		metrics.HistoryWrites.WithLabelValues("dropped").Inc()
		return false
	}
}

// Serve consume la cola hasta que ctx se cancela; entonces vacía lo que
// quede con un plazo corto.
func (w *HistoryWriter) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case doc := <-w.queue:
			w.write(ctx, doc)
		}
	}
}

func (w *HistoryWriter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case doc := <-w.queue:
			w.write(ctx, doc)
		default:
			return
		}
	}
}

func (w *HistoryWriter) write(ctx context.Context, doc RecommendationDocument) {
	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.sink.SaveRecommendation(ctx, doc)
	})
	switch {
	case err == nil:
		metrics.HistoryWrites.WithLabelValues("ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.HistoryWrites.WithLabelValues("breaker_open").Inc()
	default:
		metrics.HistoryWrites.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Str("request_id", doc.RequestID).Msg("no se pudo guardar el historial")
	}
}

// State devuelve el estado del breaker ("closed", "open", "half-open").
func (w *HistoryWriter) State() string {
	return w.breaker.State().String()
}

func (w *HistoryWriter) String() string { return "history-writer" }
