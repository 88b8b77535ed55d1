// Package recommender arma el motor de recomendación por contenido y
// responde consultas por título.
//
// El motor tiene dos estados: sin inicializar (recién creado con New) y
// listo (después de Process). Process construye todo de una vez y lo
// publica atómicamente; a partir de ahí el estado no cambia y las
// consultas son lecturas que pueden ejecutarse en paralelo sin locks.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pcd-recommender/internal/dataset"
	"pcd-recommender/internal/index"
	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/metrics"
	"pcd-recommender/internal/quality"
	"pcd-recommender/internal/similarity"
	"pcd-recommender/internal/tfidf"
)

// DefaultTopN es la cantidad de recomendaciones por consulta.
const DefaultTopN = 10

var (
	ErrDataLoad        = dataset.ErrDataLoad
	ErrNotFound        = index.ErrNotFound
	ErrMalformedRecord = dataset.ErrMalformedRecord

	// ErrNotInitialized: consulta antes de que Process termine. Es un error
	// de programación, no una condición normal.
	ErrNotInitialized = errors.New("recommender: motor no inicializado")
)

// Source entrega la tabla unida.
type Source interface {
	Records(ctx context.Context) ([]dataset.MovieRecord, error)
}

// Movie es cada elemento devuelto por GetRecommendations.
type Movie struct {
	ID       int      `json:"id"`
	Overview string   `json:"overview"`
	Title    string   `json:"title"`
	Genre    []string `json:"genre"`
	Cast     []string `json:"cast"`
}

// Stats resume el modelo construido.
type Stats struct {
	Movies          int           `json:"movies"`
	Titles          int           `json:"titles"`
	Vocabulary      int           `json:"vocabulary"`
	MeanVote        float64       `json:"mean_vote"`
	MinVotes        float64       `json:"min_votes"`
	Qualified       int           `json:"qualified"`
	DuplicateTitles []string      `json:"duplicate_titles"`
	BuildDuration   time.Duration `json:"build_duration_ns"`
	BuiltAt         time.Time     `json:"built_at"`
}

// ---------------------------------------------------------
// Opciones
// ---------------------------------------------------------

type options struct {
	topN       int
	workers    int
	percentile float64
	stopWords  []string
	customStop bool
}

type Option func(*options)

// WithTopN cambia la cantidad de resultados (por defecto 10).
func WithTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

// WithWorkers fija las goroutines del cálculo de similitud (0 = NumCPU).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithQualityPercentile cambia el cuantil de vote_count usado como m.
func WithQualityPercentile(p float64) Option {
	return func(o *options) {
		if p > 0 && p <= 1 {
			o.percentile = p
		}
	}
}

// WithStopWords reemplaza la lista de palabras vacías en inglés.
func WithStopWords(words []string) Option {
	return func(o *options) {
		o.stopWords = words
		o.customStop = true
	}
}

// ---------------------------------------------------------
// Motor
// ---------------------------------------------------------

type model struct {
	records    []dataset.MovieRecord
	quality    quality.Model
	vectorizer *tfidf.Vectorizer
	matrix     *similarity.Matrix
	titles     *index.TitleIndex
	stats      Stats
}

type Recommender struct {
	source Source
	opts   options

	buildMu sync.Mutex
	model   atomic.Pointer[model]
}

// New crea un motor sin inicializar.
func New(source Source, opts ...Option) *Recommender {
	o := options{topN: DefaultTopN, percentile: quality.DefaultPercentile}
	for _, opt := range opts {
		opt(&o)
	}
	return &Recommender{source: source, opts: o}
}

// Load crea el motor y lo deja listo.
func Load(ctx context.Context, source Source, opts ...Option) (*Recommender, error) {
	r := New(source, opts...)
	if err := r.Process(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Ready indica si Process terminó con éxito.
func (r *Recommender) Ready() bool {
	return r.model.Load() != nil
}

// Process carga los datos, calcula el modelo de calidad, vectoriza las
// sinopsis, calcula la matriz de similitud y arma el índice de títulos.
// Si falla, el motor sigue sin inicializar. Sobre un motor listo no hace
// nada.
func (r *Recommender) Process(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if r.Ready() {
		return nil
	}
	if r.source == nil {
		return &dataset.DataLoadError{Source: "source", Err: errors.New("no se configuró una fuente de datos")}
	}

	log := logging.With().Str("component", "recommender").Logger()
	start := time.Now()

	// 1. Carga y join
	phase := time.Now()
	records, err := r.source.Records(ctx)
	if err != nil {
		return fmt.Errorf("cargando datos: %w", err)
	}
	metrics.ObservePhase("load", phase)
	log.Info().Int("peliculas", len(records)).Dur("duracion", time.Since(phase)).Msg("tabla unida cargada")

	// 2. Weighted rating (señal auxiliar)
	phase = time.Now()
	qm := quality.Build(records, r.opts.percentile)
	metrics.ObservePhase("quality", phase)
	log.Debug().Float64("C", qm.C).Float64("m", qm.M).Int("calificadas", len(qm.Qualified)).Msg("modelo de calidad listo")

	// 3. TF-IDF
	phase = time.Now()
	var vopts []tfidf.Option
	if r.opts.customStop {
		vopts = append(vopts, tfidf.WithStopWords(r.opts.stopWords))
	}
	vectorizer := tfidf.NewVectorizer(vopts...)
	overviews := make([]string, len(records))
	for i, rec := range records {
		overviews[i] = rec.Overview
	}
	vectors := vectorizer.FitTransform(overviews)
	metrics.ObservePhase("vectorize", phase)
	log.Info().Int("terminos", vectorizer.VocabularySize()).Dur("duracion", time.Since(phase)).Msg("sinopsis vectorizadas")

	// 4. Matriz de similitud
	phase = time.Now()
	matrix, err := similarity.Compute(ctx, vectors, r.opts.workers)
	if err != nil {
		return fmt.Errorf("calculando similitud: %w", err)
	}
	metrics.ObservePhase("similarity", phase)
	log.Info().Int("n", matrix.Size()).Dur("duracion", time.Since(phase)).Msg("matriz de similitud calculada")

	// 5. Índice de títulos
	phase = time.Now()
	titles := make([]string, len(records))
	for i, rec := range records {
		titles[i] = rec.Title
	}
	idx := index.Build(titles)
	metrics.ObservePhase("index", phase)
	if dups := idx.Duplicates(); len(dups) > 0 {
		log.Warn().Int("repetidos", len(dups)).Strs("titulos", firstN(dups, 10)).
			Msg("títulos repetidos: se usa la última fila de cada uno")
	}

	elapsed := time.Since(start)
	metrics.BuildPhaseDuration.WithLabelValues("total").Observe(elapsed.Seconds())
	metrics.CorpusSize.Set(float64(len(records)))
	metrics.VocabularySize.Set(float64(vectorizer.VocabularySize()))
	metrics.QualifiedMovies.Set(float64(len(qm.Qualified)))

	r.model.Store(&model{
		records:    records,
		quality:    qm,
		vectorizer: vectorizer,
		matrix:     matrix,
		titles:     idx,
		stats: Stats{
			Movies:          len(records),
			Titles:          idx.Len(),
			Vocabulary:      vectorizer.VocabularySize(),
			MeanVote:        qm.C,
			MinVotes:        qm.M,
			Qualified:       len(qm.Qualified),
			DuplicateTitles: idx.Duplicates(),
			BuildDuration:   elapsed,
			BuiltAt:         time.Now(),
		},
	})

	log.Info().Dur("duracion", elapsed).Msg("motor listo")
	return nil
}

// ---------------------------------------------------------
// Consultas
// ---------------------------------------------------------

// GetRecommendations devuelve hasta TopN películas parecidas a title, de
// la más a la menos similar, sin incluir la propia película. Errores:
// ErrNotInitialized, ErrNotFound (título exacto ausente) y
// ErrMalformedRecord (géneros o elenco ilegibles en algún resultado; la
// consulta completa se aborta).
func (r *Recommender) GetRecommendations(title string) ([]Movie, error) {
	m := r.model.Load()
	if m == nil {
		return nil, ErrNotInitialized
	}
	return m.recommend(title, m.matrix, r.opts.topN)
}

// GetRecommendationsWith ordena con otra matriz de similitud del mismo
// tamaño que el corpus.
func (r *Recommender) GetRecommendationsWith(title string, matrix *similarity.Matrix) ([]Movie, error) {
	m := r.model.Load()
	if m == nil {
		return nil, ErrNotInitialized
	}
	if matrix == nil {
		matrix = m.matrix
	}
	if matrix.Size() != len(m.records) {
		return nil, fmt.Errorf("matriz de %d filas para un corpus de %d películas", matrix.Size(), len(m.records))
	}
	return m.recommend(title, matrix, r.opts.topN)
}

func (m *model) recommend(title string, matrix *similarity.Matrix, topN int) ([]Movie, error) {
	idx, err := m.titles.Lookup(title)
	if err != nil {
		return nil, err
	}

	ranked := similarity.Rank(matrix.Row(idx), idx, topN)

	out := make([]Movie, 0, len(ranked))
	for _, s := range ranked {
		rec := m.records[s.Index]
		genres, err := rec.Genres()
		if err != nil {
			return nil, err
		}
		cast, err := rec.Cast()
		if err != nil {
			return nil, err
		}
		out = append(out, Movie{
			ID:       rec.ID,
			Overview: rec.Overview,
			Title:    rec.Title,
			Genre:    genres,
			Cast:     cast,
		})
	}
	return out, nil
}

// TopRated devuelve las n películas calificadas con mejor weighted rating.
func (r *Recommender) TopRated(n int) ([]quality.ScoredMovie, error) {
	m := r.model.Load()
	if m == nil {
		return nil, ErrNotInitialized
	}
	return m.quality.Top(n), nil
}

// Stats devuelve el resumen del modelo construido.
func (r *Recommender) Stats() (Stats, error) {
	m := r.model.Load()
	if m == nil {
		return Stats{}, ErrNotInitialized
	}
	s := m.stats
	s.DuplicateTitles = append([]string(nil), m.stats.DuplicateTitles...)
	return s, nil
}

// Similarity expone la matriz (solo lectura).
func (r *Recommender) Similarity() (*similarity.Matrix, error) {
	m := r.model.Load()
	if m == nil {
		return nil, ErrNotInitialized
	}
	return m.matrix, nil
}

// TopTerms devuelve los términos presentes en más sinopsis.
func (r *Recommender) TopTerms(n int) ([]tfidf.TermCount, error) {
	m := r.model.Load()
	if m == nil {
		return nil, ErrNotInitialized
	}
	return m.vectorizer.TopTerms(n), nil
}

// Outcome clasifica el resultado de una consulta para métricas y logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed"
	case errors.Is(err, ErrNotInitialized):
		return "not_ready"
	default:
		return "error"
	}
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
