package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const creditsCSV = `movie_id,title,cast,crew
19995,Avatar,"[{""cast_id"": 242, ""name"": ""Sam Worthington""}]","[{""job"": ""Director"", ""name"": ""James Cameron""}]"
285,Pirates of the Caribbean: At World's End,"[{""name"": ""Johnny Depp""}]",[]
206647,Spectre,"[{""name"": ""Daniel Craig""}]",[]
`

const moviesCSV = `budget,genres,id,overview,title,vote_average,vote_count
237000000,"[{""id"": 28, ""name"": ""Action""}]",19995,In the 22nd century a paraplegic Marine is dispatched to Pandora.,Avatar,7.2,11800
300000000,"[{""id"": 12, ""name"": ""Adventure""}]",285,Captain Barbossa returns.,Pirates of the Caribbean: At World's End,6.9,4500
245000000,"[{""id"": 80, ""name"": ""Crime""}]",206647,,Spectre,6.3,4466
1000,[],999,Not in credits.,Orphan,5.0,3
`

func TestRead(t *testing.T) {
	records, err := Read(strings.NewReader(creditsCSV), strings.NewReader(moviesCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3 (movie 999 has no credits)", len(records))
	}

	wantIDs := []int{19995, 285, 206647}
	for i, id := range wantIDs {
		if records[i].ID != id {
			t.Errorf("records[%d].ID = %d, want %d", i, records[i].ID, id)
		}
	}

	avatar := records[0]
	if avatar.Title != "Avatar" || avatar.CreditsTitle != "Avatar" {
		t.Errorf("titles = %q / %q", avatar.Title, avatar.CreditsTitle)
	}
	if avatar.VoteCount != 11800 || avatar.VoteAverage != 7.2 {
		t.Errorf("votes = %d / %v", avatar.VoteCount, avatar.VoteAverage)
	}
	if !strings.Contains(avatar.CrewRaw, "James Cameron") {
		t.Errorf("crew not joined: %q", avatar.CrewRaw)
	}
	if records[2].Overview != "" {
		t.Errorf("missing overview should be empty string, got %q", records[2].Overview)
	}
}

func TestJoinDuplicateCredits(t *testing.T) {
	movies := []MovieRow{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	credits := []Credit{
		{MovieID: 2, Title: "B", Cast: "first"},
		{MovieID: 1, Title: "A"},
		{MovieID: 2, Title: "B", Cast: "second"},
	}

	got := Join(movies, credits)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != 1 || got[1].CastRaw != "first" || got[2].CastRaw != "second" {
		t.Errorf("unexpected join order: %+v", got)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		credits string
		movies  string
		source  string
		column  string
	}{
		{
			name:    "empty credits",
			credits: "",
			movies:  moviesCSV,
			source:  SourceCredits,
		},
		{
			name:    "credits missing cast column",
			credits: "movie_id,title,crew\n1,A,[]\n",
			movies:  moviesCSV,
			source:  SourceCredits,
			column:  "cast",
		},
		{
			name:    "movies missing overview",
			credits: creditsCSV,
			movies:  "id,title,genres,vote_count,vote_average\n1,A,[],1,1\n",
			source:  SourceMovies,
			column:  "overview",
		},
		{
			name:    "non numeric vote count",
			credits: creditsCSV,
			movies:  "id,title,overview,genres,vote_count,vote_average\n1,A,x,[],many,1\n",
			source:  SourceMovies,
			column:  "vote_count",
		},
		{
			name:    "empty id",
			credits: "movie_id,title,cast,crew\n,A,[],[]\n",
			movies:  moviesCSV,
			source:  SourceCredits,
			column:  "movie_id",
		},
		{
			name:    "ragged csv row",
			credits: creditsCSV,
			movies:  "id,title,overview,genres,vote_count,vote_average\n1,A,x\n",
			source:  SourceMovies,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.credits), strings.NewReader(tt.movies))
			if !errors.Is(err, ErrDataLoad) {
				t.Fatalf("error = %v, want ErrDataLoad", err)
			}
			var dle *DataLoadError
			if !errors.As(err, &dle) {
				t.Fatalf("error %T is not *DataLoadError", err)
			}
			if dle.Source != tt.source {
				t.Errorf("Source = %q, want %q", dle.Source, tt.source)
			}
			if tt.column != "" && dle.Column != tt.column {
				t.Errorf("Column = %q, want %q", dle.Column, tt.column)
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	credits := filepath.Join(dir, "credits.csv")
	movies := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(credits, []byte(creditsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(movies, []byte(moviesCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Files{CreditsPath: credits, MoviesPath: movies}.Records(context.Background())
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("len = %d, want 3", len(records))
	}

	_, err = Load(context.Background(), filepath.Join(dir, "missing.csv"), movies)
	if !errors.Is(err, ErrDataLoad) {
		t.Errorf("missing file error = %v, want ErrDataLoad", err)
	}
}

func TestStaticCopies(t *testing.T) {
	src := Static{{ID: 1, Title: "A"}}
	got, _ := src.Records(context.Background())
	got[0].Title = "changed"
	if src[0].Title != "A" {
		t.Error("Static.Records must not alias the backing slice")
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{" 7 ", 7, false},
		{"12.0", 12, false},
		{"", 0, false},
		{"-1", 0, true},
		{"1.5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCount(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
