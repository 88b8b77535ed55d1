package dataset

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseNames(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "tmdb json",
			raw:  `[{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]`,
			want: []string{"Action", "Adventure"},
		},
		{
			name: "empty list",
			raw:  `[]`,
			want: []string{},
		},
		{
			name: "python literal",
			raw:  `[{'id': 1, 'name': "Miles O'Brien", 'lead': True, 'alias': None}]`,
			want: []string{"Miles O'Brien"},
		},
		{
			name: "python escaped quote",
			raw:  `[{'name': 'Don\'t Look'}, {'name': 'say "hi"'}]`,
			want: []string{"Don't Look", `say "hi"`},
		},
		{name: "empty string", raw: "", wantErr: true},
		{name: "not a list", raw: `{"name": "Action"}`, wantErr: true},
		{name: "missing name", raw: `[{"id": 1}]`, wantErr: true},
		{name: "numeric name", raw: `[{"name": 3}]`, wantErr: true},
		{name: "null element", raw: `[null]`, wantErr: true},
		{name: "scalars", raw: `[1, 2]`, wantErr: true},
		{name: "unterminated", raw: `[{'name': 'x}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNames(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseNames(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNames(%q) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseNames(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRecordAccessorsWrapMalformed(t *testing.T) {
	rec := MovieRecord{ID: 7, GenresRaw: `[{"name": "Drama"}]`, CastRaw: `not a list`}

	genres, err := rec.Genres()
	if err != nil || len(genres) != 1 || genres[0] != "Drama" {
		t.Fatalf("Genres() = %v, %v", genres, err)
	}

	_, err = rec.Cast()
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("Cast() error = %v, want ErrMalformedRecord", err)
	}
	var mre *MalformedRecordError
	if !errors.As(err, &mre) || mre.ID != 7 || mre.Field != "cast" {
		t.Errorf("unexpected error detail: %+v", mre)
	}
}
