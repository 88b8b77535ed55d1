package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pcd-recommender/internal/config"
	"pcd-recommender/internal/dataset"
	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/similarity"
	"pcd-recommender/internal/tfidf"
)

func main() {
	outDir := flag.String("out", "recommendation", "carpeta de salida")
	workersFlag := flag.String("workers", "1,2,4,8,16", "cantidades de workers a probar")
	repeat := flag.Int("repeat", 3, "repeticiones por configuración (se toma la mejor)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("error cargando configuración")
	}
	counts, err := parseWorkers(*workersFlag)
	if err != nil {
		logging.Fatal().Err(err).Msg("lista de workers inválida")
	}

	ctx := context.Background()
	records, err := dataset.Load(ctx, cfg.Data.CreditsPath, cfg.Data.MoviesPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("no se pudieron cargar los datos")
	}

	overviews := make([]string, len(records))
	for i, rec := range records {
		overviews[i] = rec.Overview
	}
	vectors := tfidf.NewVectorizer().FitTransform(overviews)
	logging.Info().Int("peliculas", len(vectors)).Msg("sinopsis vectorizadas, midiendo speed-up")

	results, err := measure(ctx, vectors, counts, *repeat)
	if err != nil {
		logging.Fatal().Err(err).Msg("benchmark fallido")
	}
	for _, r := range results {
		logging.Info().Int("workers", r.Workers).Dur("tiempo", r.Elapsed).Float64("speedup", r.Speedup).
			Msg("configuración completada")
	}

	if err := os.MkdirAll(*outDir, os.ModePerm); err != nil {
		logging.Fatal().Err(err).Send()
	}
	path := filepath.Join(*outDir, "speedup.csv")
	if err := saveCSV(path, results); err != nil {
		logging.Fatal().Err(err).Msg("no se pudo guardar el resultado")
	}
	logging.Info().Str("archivo", path).Msg("benchmark completo")
}

// Result es la mejor medición para una cantidad de workers.
type Result struct {
	Workers int
	Elapsed time.Duration
	Speedup float64 // respecto de la primera configuración
}

// measure calcula la matriz de similitud con cada cantidad de workers y
// se queda con el mejor de repeat intentos.
func measure(ctx context.Context, vectors []tfidf.SparseVector, counts []int, repeat int) ([]Result, error) {
	if repeat < 1 {
		repeat = 1
	}
	results := make([]Result, 0, len(counts))
	for _, w := range counts {
		best := time.Duration(-1)
		for range repeat {
			start := time.Now()
			if _, err := similarity.Compute(ctx, vectors, w); err != nil {
				return nil, err
			}
			if d := time.Since(start); best < 0 || d < best {
				best = d
			}
		}
		results = append(results, Result{Workers: w, Elapsed: best})
	}
	if len(results) > 0 {
		base := results[0].Elapsed.Seconds()
		for i := range results {
			if s := results[i].Elapsed.Seconds(); s > 0 {
				results[i].Speedup = base / s
			}
		}
	}
	return results, nil
}

func parseWorkers(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("valor inválido %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("lista vacía")
	}
	return out, nil
}

func saveCSV(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"Workers", "ElapsedSeconds", "Speedup"})
	for _, r := range results {
		w.Write([]string{strconv.Itoa(r.Workers), fmt.Sprintf("%.6f", r.Elapsed.Seconds()), fmt.Sprintf("%.3f", r.Speedup)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
