package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"pcd-recommender/internal/cleaning"
	"pcd-recommender/internal/logging"
)

func main() {
	rawDir := flag.String("raw", "data/raw", "carpeta con los CSV originales de TMDB")
	outDir := flag.String("out", "assets", "carpeta de salida")
	workers := flag.Int("workers", runtime.NumCPU(), "goroutines concurrentes")
	flag.Parse()

	logging.Info().Str("raw", *rawDir).Str("out", *outDir).Int("workers", *workers).
		Msg("iniciando limpieza concurrente de TMDB")

	reports, err := run(context.Background(), *rawDir, *outDir, *workers)
	if err != nil {
		logging.Fatal().Err(err).Msg("limpieza fallida")
	}
	for _, rep := range reports {
		logging.Info().Str("tabla", rep.Source).Int("leidas", rep.Read).Int("conservadas", rep.Kept).
			Int("invalidas", rep.Dropped).Int("duplicadas", rep.Duplicates).Msg("limpieza completada")
	}
}

type cleanFunc func(ctx context.Context, r io.Reader, w io.Writer, workers int) (cleaning.Report, error)

// run limpia credits y movies de rawDir y escribe el resultado con el
// mismo nombre en outDir.
func run(ctx context.Context, rawDir, outDir string, workers int) ([]cleaning.Report, error) {
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return nil, err
	}

	tables := []struct {
		name string
		fn   cleanFunc
	}{
		{"tmdb_5000_credits.csv", cleaning.Credits},
		{"tmdb_5000_movies.csv", cleaning.Movies},
	}

	var reports []cleaning.Report
	for _, tb := range tables {
		rep, err := cleanFile(ctx, filepath.Join(rawDir, tb.name), filepath.Join(outDir, tb.name), workers, tb.fn)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func cleanFile(ctx context.Context, in, out string, workers int, fn cleanFunc) (cleaning.Report, error) {
	src, err := os.Open(in)
	if err != nil {
		return cleaning.Report{}, err
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return cleaning.Report{}, err
	}

	rep, err := fn(ctx, src, dst, workers)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return rep, fmt.Errorf("%s: %w", in, err)
	}
	return rep, nil
}
