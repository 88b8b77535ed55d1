// Package cleaning limpia los CSV de TMDB antes de cargarlos en el motor.
//
// Cada fila se valida en paralelo (bloques sobre un errgroup); el
// resultado conserva el orden original. Se descartan filas sin id o sin
// título, con id no numérico o con una cantidad de columnas distinta a la
// del encabezado, y se eliminan ids repetidos (gana la primera fila).
// Las columnas JSON vacías se completan con "[]" y las numéricas con "0".
package cleaning

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

const blockSize = 256

// Report resume una limpieza.
type Report struct {
	Source     string
	Read       int
	Kept       int
	Dropped    int // filas inválidas
	Duplicates int // ids repetidos
}

func (r Report) String() string {
	return fmt.Sprintf("%s: leídas=%d conservadas=%d inválidas=%d duplicadas=%d",
		r.Source, r.Read, r.Kept, r.Dropped, r.Duplicates)
}

// rules describe cómo limpiar una tabla.
type rules struct {
	source   string
	id       []string // alias aceptados para la columna id
	title    string
	defaults map[string]string
}

var moviesRules = rules{
	source: "movies",
	id:     []string{"id"},
	title:  "title",
	defaults: map[string]string{
		"overview":     "",
		"genres":       "[]",
		"keywords":     "[]",
		"vote_count":   "0",
		"vote_average": "0",
	},
}

var creditsRules = rules{
	source: "credits",
	id:     []string{"movie_id", "id"},
	title:  "title",
	defaults: map[string]string{
		"cast": "[]",
		"crew": "[]",
	},
}

// Movies limpia tmdb_5000_movies.csv.
func Movies(ctx context.Context, r io.Reader, w io.Writer, workers int) (Report, error) {
	return clean(ctx, r, w, workers, moviesRules)
}

// Credits limpia tmdb_5000_credits.csv.
func Credits(ctx context.Context, r io.Reader, w io.Writer, workers int) (Report, error) {
	return clean(ctx, r, w, workers, creditsRules)
}

type cleaned struct {
	keep bool
	id   int
	row  []string
}

func clean(ctx context.Context, r io.Reader, w io.Writer, workers int, rl rules) (Report, error) {
	rep := Report{Source: rl.source}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return rep, fmt.Errorf("%s: leyendo encabezado: %w", rl.source, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	idCol := -1
	for _, alias := range rl.id {
		if i, ok := cols[alias]; ok {
			idCol = i
			break
		}
	}
	titleCol, ok := cols[rl.title]
	if idCol < 0 || !ok {
		return rep, fmt.Errorf("%s: faltan las columnas %v o %q", rl.source, rl.id, rl.title)
	}
	defaults := make(map[int]string)
	for name, v := range rl.defaults {
		if i, ok := cols[name]; ok {
			defaults[i] = v
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return rep, fmt.Errorf("%s: %w", rl.source, err)
	}
	rep.Read = len(rows)

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]cleaned, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(rows); start += blockSize {
		end := min(start+blockSize, len(rows))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = cleanRow(rows[i], len(header), idCol, titleCol, defaults)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return rep, err
	}
	seen := make(map[int]bool, len(out))
	for _, c := range out {
		switch {
		case !c.keep:
			rep.Dropped++
		case seen[c.id]:
			rep.Duplicates++
		default:
			seen[c.id] = true
			rep.Kept++
			if err := cw.Write(c.row); err != nil {
				return rep, err
			}
		}
	}
	cw.Flush()
	return rep, cw.Error()
}

func cleanRow(row []string, width, idCol, titleCol int, defaults map[int]string) cleaned {
	if len(row) != width {
		return cleaned{}
	}
	idStr := strings.TrimSpace(row[idCol])
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return cleaned{}
	}
	title := strings.TrimSpace(row[titleCol])
	if title == "" {
		return cleaned{}
	}

	outRow := make([]string, len(row))
	copy(outRow, row)
	outRow[idCol] = idStr
	outRow[titleCol] = title
	for i, v := range defaults {
		if strings.TrimSpace(outRow[i]) == "" {
			outRow[i] = v
		}
	}
	return cleaned{keep: true, id: id, row: outRow}
}
