// Package dataset lee las dos fuentes tabulares de TMDB (créditos y
// películas) y las une en una sola tabla ordenada por id.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------
// Estructuras
// ---------------------------------------------------------

// Credit es una fila de tmdb_5000_credits.csv.
type Credit struct {
	MovieID int
	Title   string
	Cast    string
	Crew    string
}

// MovieRow es una fila de tmdb_5000_movies.csv con las columnas que usamos.
type MovieRow struct {
	ID          int
	Title       string
	Overview    string
	Genres      string
	VoteCount   int
	VoteAverage float64
}

// MovieRecord es una fila de la tabla unida. Title viene de la fuente de
// películas y es el que se usa para buscar y mostrar; CreditsTitle se
// conserva renombrado.
type MovieRecord struct {
	ID           int
	Title        string
	CreditsTitle string
	Overview     string
	GenresRaw    string
	CastRaw      string
	CrewRaw      string
	VoteCount    int
	VoteAverage  float64
}

const (
	SourceCredits = "credits"
	SourceMovies  = "movies"
)

// ---------------------------------------------------------
// Fuentes
// ---------------------------------------------------------

// Files carga la tabla unida desde dos rutas CSV.
type Files struct {
	CreditsPath string
	MoviesPath  string
}

func (f Files) Records(ctx context.Context) ([]MovieRecord, error) {
	return Load(ctx, f.CreditsPath, f.MoviesPath)
}

// Static entrega registros ya construidos (tests, datos embebidos).
type Static []MovieRecord

func (s Static) Records(context.Context) ([]MovieRecord, error) {
	out := make([]MovieRecord, len(s))
	copy(out, s)
	return out, nil
}

// ---------------------------------------------------------
// Carga
// ---------------------------------------------------------

// Load abre ambos archivos y devuelve la tabla unida.
func Load(ctx context.Context, creditsPath, moviesPath string) ([]MovieRecord, error) {
	cf, err := os.Open(creditsPath)
	if err != nil {
		return nil, &DataLoadError{Source: SourceCredits, Err: err}
	}
	defer cf.Close()

	mf, err := os.Open(moviesPath)
	if err != nil {
		return nil, &DataLoadError{Source: SourceMovies, Err: err}
	}
	defer mf.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Read(cf, mf)
}

// Read parsea ambas fuentes y las une por id.
func Read(credits, movies io.Reader) ([]MovieRecord, error) {
	c, err := ReadCredits(credits)
	if err != nil {
		return nil, err
	}
	m, err := ReadMovies(movies)
	if err != nil {
		return nil, err
	}
	return Join(m, c), nil
}

// ReadCredits lee las columnas movie_id (o id), title, cast y crew.
func ReadCredits(r io.Reader) ([]Credit, error) {
	rows, cols, err := readTable(r, SourceCredits,
		[]string{"movie_id", "id"}, []string{"title"}, []string{"cast"}, []string{"crew"})
	if err != nil {
		return nil, err
	}

	out := make([]Credit, 0, len(rows))
	for i, rec := range rows {
		line := i + 2
		id, err := parseID(rec[cols[0]])
		if err != nil {
			return nil, &DataLoadError{Source: SourceCredits, Row: line, Column: "movie_id", Err: err}
		}
		out = append(out, Credit{
			MovieID: id,
			Title:   rec[cols[1]],
			Cast:    rec[cols[2]],
			Crew:    rec[cols[3]],
		})
	}
	return out, nil
}

// ReadMovies lee id, title, overview, genres, vote_count y vote_average;
// el resto de columnas se ignora.
func ReadMovies(r io.Reader) ([]MovieRow, error) {
	rows, cols, err := readTable(r, SourceMovies,
		[]string{"id"}, []string{"title"}, []string{"overview"}, []string{"genres"},
		[]string{"vote_count"}, []string{"vote_average"})
	if err != nil {
		return nil, err
	}

	out := make([]MovieRow, 0, len(rows))
	for i, rec := range rows {
		line := i + 2
		id, err := parseID(rec[cols[0]])
		if err != nil {
			return nil, &DataLoadError{Source: SourceMovies, Row: line, Column: "id", Err: err}
		}
		votes, err := parseCount(rec[cols[4]])
		if err != nil {
			return nil, &DataLoadError{Source: SourceMovies, Row: line, Column: "vote_count", Err: err}
		}
		avg, err := parseFloat(rec[cols[5]])
		if err != nil {
			return nil, &DataLoadError{Source: SourceMovies, Row: line, Column: "vote_average", Err: err}
		}
		out = append(out, MovieRow{
			ID:          id,
			Title:       rec[cols[1]],
			Overview:    rec[cols[2]],
			Genres:      rec[cols[3]],
			VoteCount:   votes,
			VoteAverage: avg,
		})
	}
	return out, nil
}

// Join hace un inner join por id. El orden sigue a la fuente de películas;
// si un id aparece varias veces en créditos se emite una fila por cada
// coincidencia, en el orden de créditos.
func Join(movies []MovieRow, credits []Credit) []MovieRecord {
	byID := make(map[int][]Credit, len(credits))
	for _, c := range credits {
		byID[c.MovieID] = append(byID[c.MovieID], c)
	}

	out := make([]MovieRecord, 0, len(movies))
	for _, m := range movies {
		for _, c := range byID[m.ID] {
			out = append(out, MovieRecord{
				ID:           m.ID,
				Title:        m.Title,
				CreditsTitle: c.Title,
				Overview:     m.Overview,
				GenresRaw:    m.Genres,
				CastRaw:      c.Cast,
				CrewRaw:      c.Crew,
				VoteCount:    m.VoteCount,
				VoteAverage:  m.VoteAverage,
			})
		}
	}
	return out
}

// ---------------------------------------------------------
// Utilidades
// ---------------------------------------------------------

// readTable lee todo el CSV y resuelve cada columna requerida por nombre.
// Cada grupo de aliases produce un índice en cols.
func readTable(r io.Reader, source string, required ...[]string) ([][]string, []int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &DataLoadError{Source: source, Err: errors.New("archivo vacío")}
	}
	if err != nil {
		return nil, nil, &DataLoadError{Source: source, Row: 1, Err: err}
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	cols := make([]int, len(required))
	for i, aliases := range required {
		idx := -1
		for _, a := range aliases {
			if p, ok := pos[a]; ok {
				idx = p
				break
			}
		}
		if idx < 0 {
			return nil, nil, &DataLoadError{Source: source, Column: aliases[0], Err: errors.New("columna requerida ausente")}
		}
		cols[i] = idx
	}

	rows, err := reader.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, nil, &DataLoadError{Source: source, Row: pe.StartLine, Err: err}
		}
		return nil, nil, &DataLoadError{Source: source, Err: err}
	}
	return rows, cols, nil
}

func parseID(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, errors.New("id vacío")
	}
	return parseCount(s)
}

// parseCount acepta enteros no negativos, también escritos como "12.0".
// Una celda vacía vale 0.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("valor negativo %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("entero inválido %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("número inválido %q", s)
	}
	return f, nil
}
