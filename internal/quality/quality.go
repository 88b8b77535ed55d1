// Package quality calcula el "weighted rating" bayesiano de cada película.
// Es una señal auxiliar: el ranking por similitud no lo usa.
package quality

import (
	"math"
	"sort"

	"pcd-recommender/internal/dataset"
)

// DefaultPercentile es el cuantil de vote_count usado como mínimo de votos.
const DefaultPercentile = 0.9

// ScoredMovie es una película calificada (vote_count >= m) con su puntaje.
type ScoredMovie struct {
	Row         int     `json:"-"`
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	VoteCount   int     `json:"vote_count"`
	VoteAverage float64 `json:"vote_average"`
	Score       float64 `json:"score"`
}

// Model guarda C (promedio global), M (mínimo de votos) y el subconjunto
// calificado ordenado por puntaje descendente.
type Model struct {
	C         float64
	M         float64
	Qualified []ScoredMovie
}

// WeightedRating = v/(v+m)·R + m/(m+v)·C
func WeightedRating(v int, R, m, C float64) float64 {
	vf := float64(v)
	if vf+m == 0 {
		return C
	}
	return vf/(vf+m)*R + m/(m+vf)*C
}

// Build calcula C, M y el subconjunto calificado de records.
func Build(records []dataset.MovieRecord, percentile float64) Model {
	if len(records) == 0 {
		return Model{}
	}

	averages := make([]float64, len(records))
	counts := make([]float64, len(records))
	for i, r := range records {
		averages[i] = r.VoteAverage
		counts[i] = float64(r.VoteCount)
	}

	m := Model{
		C: Mean(averages),
		M: Quantile(counts, percentile),
	}

	for i, r := range records {
		if float64(r.VoteCount) < m.M {
			continue
		}
		m.Qualified = append(m.Qualified, ScoredMovie{
			Row:         i,
			ID:          r.ID,
			Title:       r.Title,
			VoteCount:   r.VoteCount,
			VoteAverage: r.VoteAverage,
			Score:       WeightedRating(r.VoteCount, r.VoteAverage, m.M, m.C),
		})
	}

	sort.SliceStable(m.Qualified, func(i, j int) bool {
		return m.Qualified[i].Score > m.Qualified[j].Score
	})
	return m
}

// Top devuelve hasta n películas calificadas; n <= 0 devuelve todas.
func (m Model) Top(n int) []ScoredMovie {
	if n <= 0 || n > len(m.Qualified) {
		n = len(m.Qualified)
	}
	out := make([]ScoredMovie, n)
	copy(out, m.Qualified[:n])
	return out
}

// Mean devuelve 0 para una lista vacía.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Quantile usa interpolación lineal entre los dos puntos vecinos
// (posición q·(n-1) sobre los valores ordenados).
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
