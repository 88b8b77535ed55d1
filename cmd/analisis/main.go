package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"pcd-recommender/internal/config"
	"pcd-recommender/internal/dataset"
	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/recommender"
)

func main() {
	outDir := flag.String("out", "analisis", "carpeta de salida")
	top := flag.Int("top", 20, "filas de los rankings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("error cargando configuración")
	}

	logging.Info().Msg("iniciando análisis del corpus TMDB")
	if err := run(context.Background(), cfg.Data, cfg.Engine, *outDir, *top); err != nil {
		logging.Fatal().Err(err).Msg("análisis fallido")
	}
	logging.Info().Str("out", *outDir).Msg("análisis completo")
}

func run(ctx context.Context, data config.DataConfig, eng config.EngineConfig, outDir string, top int) error {
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return err
	}

	records, err := dataset.Load(ctx, data.CreditsPath, data.MoviesPath)
	if err != nil {
		return err
	}
	engine, err := recommender.Load(ctx, dataset.Static(records),
		recommender.WithWorkers(eng.Workers),
		recommender.WithQualityPercentile(eng.QualityPercentile),
	)
	if err != nil {
		return err
	}

	stats, _ := engine.Stats()
	if err := saveCSV(filepath.Join(outDir, "analysis_summary.csv"), [][]string{
		{"Metric", "Value"},
		{"Películas", strconv.Itoa(stats.Movies)},
		{"Títulos únicos", strconv.Itoa(stats.Titles)},
		{"Títulos repetidos", strconv.Itoa(len(stats.DuplicateTitles))},
		{"Vocabulario", strconv.Itoa(stats.Vocabulary)},
		{"C (promedio de votos)", fmt.Sprintf("%.4f", stats.MeanVote)},
		{"m (mínimo de votos)", fmt.Sprintf("%.1f", stats.MinVotes)},
		{"Películas calificadas", strconv.Itoa(stats.Qualified)},
		{"Tiempo de construcción (ms)", strconv.FormatInt(stats.BuildDuration.Milliseconds(), 10)},
	}); err != nil {
		return err
	}

	// ---------------------- TOP POR WEIGHTED RATING ----------------------

	topRated, _ := engine.TopRated(top)
	rows := [][]string{{"MovieID", "Title", "VoteCount", "VoteAverage", "Score"}}
	for _, m := range topRated {
		rows = append(rows, []string{strconv.Itoa(m.ID), m.Title, strconv.Itoa(m.VoteCount),
			fmt.Sprintf("%.1f", m.VoteAverage), fmt.Sprintf("%.4f", m.Score)})
	}
	if err := saveCSV(filepath.Join(outDir, "analysis_top_rated.csv"), rows); err != nil {
		return err
	}

	// ---------------------- TÉRMINOS MÁS FRECUENTES ----------------------

	terms, _ := engine.TopTerms(top)
	rows = [][]string{{"Term", "Documents"}}
	for _, tc := range terms {
		rows = append(rows, []string{tc.Term, strconv.Itoa(tc.DF)})
	}
	if err := saveCSV(filepath.Join(outDir, "analysis_top_terms.csv"), rows); err != nil {
		return err
	}

	// ---------------------- GÉNEROS ----------------------

	return saveCSV(filepath.Join(outDir, "analysis_genres_count.csv"), genreCounts(records))
}

// genreCounts cuenta películas por género; las filas con géneros
// ilegibles se omiten.
func genreCounts(records []dataset.MovieRecord) [][]string {
	counts := make(map[string]int)
	skipped := 0
	for _, rec := range records {
		genres, err := rec.Genres()
		if err != nil {
			skipped++
			continue
		}
		for _, g := range genres {
			counts[g]++
		}
	}
	if skipped > 0 {
		logging.Warn().Int("filas", skipped).Msg("géneros ilegibles omitidos")
	}

	names := make([]string, 0, len(counts))
	for g := range counts {
		names = append(names, g)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	rows := [][]string{{"Genre", "Movies"}}
	for _, g := range names {
		rows = append(rows, []string{g, strconv.Itoa(counts[g])})
	}
	return rows
}

func saveCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
