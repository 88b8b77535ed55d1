package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pcd-recommender/internal/config"
)

func writeFixtures(t *testing.T) config.DataConfig {
	t.Helper()
	dir := t.TempDir()
	credits := "movie_id,title,cast,crew\n" +
		"1,A,\"[{\"\"name\"\": \"\"Ana\"\"}]\",[]\n" +
		"2,B,[],[]\n" +
		"3,C,[],[]\n"
	movies := "id,title,overview,genres,vote_count,vote_average\n" +
		"1,A,a spy thriller in london,\"[{\"\"name\"\": \"\"Action\"\"}, {\"\"name\"\": \"\"Thriller\"\"}]\",100,7\n" +
		"2,B,a spy drama in london,\"[{\"\"name\"\": \"\"Drama\"\"}, {\"\"name\"\": \"\"Thriller\"\"}]\",10,9\n" +
		"3,C,a romantic comedy in paris,[],1000,6\n"

	data := config.DataConfig{
		CreditsPath: filepath.Join(dir, "credits.csv"),
		MoviesPath:  filepath.Join(dir, "movies.csv"),
	}
	if err := os.WriteFile(data.CreditsPath, []byte(credits), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(data.MoviesPath, []byte(movies), 0o644); err != nil {
		t.Fatal(err)
	}
	return data
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestRun(t *testing.T) {
	out := t.TempDir()
	eng := config.EngineConfig{TopN: 10, QualityPercentile: 0.9}

	if err := run(context.Background(), writeFixtures(t), eng, out, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	summary := readCSV(t, filepath.Join(out, "analysis_summary.csv"))
	if summary[1][1] != "3" {
		t.Errorf("películas = %v", summary[1])
	}

	topRated := readCSV(t, filepath.Join(out, "analysis_top_rated.csv"))
	if len(topRated) != 2 || topRated[1][1] != "C" {
		t.Errorf("top rated = %v", topRated)
	}

	genres := readCSV(t, filepath.Join(out, "analysis_genres_count.csv"))
	want := [][]string{{"Genre", "Movies"}, {"Thriller", "2"}, {"Action", "1"}, {"Drama", "1"}}
	if !reflect.DeepEqual(genres, want) {
		t.Errorf("genres = %v, want %v", genres, want)
	}

	terms := readCSV(t, filepath.Join(out, "analysis_top_terms.csv"))
	if terms[1][0] != "london" || terms[1][1] != "2" {
		t.Errorf("terms = %v", terms)
	}
}

func TestRunMissingData(t *testing.T) {
	data := config.DataConfig{CreditsPath: "nope.csv", MoviesPath: "nope.csv"}
	if err := run(context.Background(), data, config.EngineConfig{}, t.TempDir(), 5); err == nil {
		t.Fatal("se esperaba error de carga")
	}
}
