// Package similarity calcula la matriz de similitud entre todas las
// películas (kernel lineal sobre vectores TF-IDF) y ordena filas.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"pcd-recommender/internal/tfidf"
)

// blockRows es la cantidad de filas que procesa cada tarea del pool.
const blockRows = 32

// ---------------------------------------------------------
// Matriz densa N×N
// ---------------------------------------------------------

// Matrix es cuadrada y se guarda por filas en un solo slice.
type Matrix struct {
	n    int
	data []float64
}

func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// FromRows copia una matriz dada por filas; debe ser cuadrada.
func FromRows(rows [][]float64) (*Matrix, error) {
	m := NewMatrix(len(rows))
	for i, r := range rows {
		if len(r) != m.n {
			return nil, fmt.Errorf("fila %d tiene %d columnas, se esperaban %d", i, len(r), m.n)
		}
		copy(m.data[i*m.n:(i+1)*m.n], r)
	}
	return m, nil
}

// Size es N.
func (m *Matrix) Size() int { return m.n }

func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Row devuelve la fila i sin copiar. No modificar.
func (m *Matrix) Row(i int) []float64 { return m.data[i*m.n : (i+1)*m.n] }

// ---------------------------------------------------------
// Kernel lineal
// ---------------------------------------------------------

type posting struct {
	doc   int
	value float64
}

// Compute devuelve X·Xᵀ. Como los vectores vienen normalizados, cada
// entrada es la similitud coseno. Se arma un índice invertido término →
// documentos para que cada fila solo toque las películas con términos en
// común. Las filas se reparten entre workers goroutines (0 = NumCPU);
// cada una escribe filas distintas, así que el resultado no depende de
// la cantidad de workers.
func Compute(ctx context.Context, vectors []tfidf.SparseVector, workers int) (*Matrix, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	n := len(vectors)
	m := NewMatrix(n)
	if n == 0 {
		return m, nil
	}

	dims := 0
	for _, v := range vectors {
		if len(v.Indices) != len(v.Values) {
			return nil, errors.New("vector disperso con índices y valores de distinto largo")
		}
		if k := len(v.Indices); k > 0 && v.Indices[k-1]+1 > dims {
			dims = v.Indices[k-1] + 1
		}
	}

	postings := make([][]posting, dims)
	for doc, v := range vectors {
		for k, term := range v.Indices {
			postings[term] = append(postings[term], posting{doc: doc, value: v.Values[k]})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += blockRows {
		end := min(start+blockRows, n)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				row := m.data[i*n : (i+1)*n]
				v := vectors[i]
				for k, term := range v.Indices {
					x := v.Values[k]
					for _, p := range postings[term] {
						row[p.doc] += x * p.value
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// CosineSimilarity normaliza explícitamente; sirve para vectores que no
// vienen con norma 1. Devuelve 0 si alguno es el vector cero.
func CosineSimilarity(a, b tfidf.SparseVector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// ---------------------------------------------------------
// Ordenamiento y selección de los N mejores
// ---------------------------------------------------------

// Scored es una fila de la matriz con su similitud respecto a la consulta.
type Scored struct {
	Index int
	Score float64
}

// Rank ordena la fila de mayor a menor similitud. El orden es estable:
// ante empates se respeta el orden del corpus. La posición exclude (la
// propia película) se descarta y se devuelven a lo sumo n entradas.
func Rank(row []float64, exclude, n int) []Scored {
	scores := make([]Scored, 0, len(row))
	for i, s := range row {
		if i == exclude {
			continue
		}
		scores = append(scores, Scored{Index: i, Score: s})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if n >= 0 && len(scores) > n {
		return scores[:n]
	}
	return scores
}
