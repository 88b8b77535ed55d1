// Package metrics registra las métricas Prometheus del recomendador.
// Se exponen en /metrics con promhttp.Handler().
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Construcción del modelo
	BuildPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_build_phase_duration_seconds",
			Help:    "Duración de cada fase de la construcción del modelo",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"}, // load, quality, vectorize, similarity, index, total
	)

	CorpusSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_corpus_movies",
			Help: "Películas en la tabla unida",
		},
	)

	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_vocabulary_terms",
			Help: "Términos del vocabulario TF-IDF",
		},
	)

	QualifiedMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_qualified_movies",
			Help: "Películas con vote_count >= m",
		},
	)

	// Consultas
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_requests_total",
			Help: "Consultas de recomendación por transporte y resultado",
		},
		[]string{"transport", "outcome"}, // outcome: ok, not_found, malformed, not_ready, error
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_request_duration_seconds",
			Help:    "Latencia de una consulta de recomendación",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"transport"},
	)

	// Historial en MongoDB
	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_history_writes_total",
			Help: "Escrituras del historial de consultas",
		},
		[]string{"result"}, // ok, error, dropped, breaker_open
	)

	// Nodos remotos
	NodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_node_requests_total",
			Help: "Consultas reenviadas a nodos TCP",
		},
		[]string{"node", "result"},
	)
)

// ObservePhase registra la duración de una fase desde start.
func ObservePhase(phase string, start time.Time) {
	BuildPhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// RecordRequest cuenta una consulta y su latencia.
func RecordRequest(transport, outcome string, elapsed time.Duration) {
	RecommendRequests.WithLabelValues(transport, outcome).Inc()
	RecommendDuration.WithLabelValues(transport).Observe(elapsed.Seconds())
}
