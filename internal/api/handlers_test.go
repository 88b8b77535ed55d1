package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"pcd-recommender/internal/dataset"
	"pcd-recommender/internal/recommender"
	"pcd-recommender/pkg/database"
)

func testEngine(t *testing.T) *recommender.Recommender {
	t.Helper()
	src := dataset.Static{
		{ID: 1, Title: "A", Overview: "a spy thriller in london", GenresRaw: `[{"id": 28, "name": "Action"}]`, CastRaw: `[{"name": "Ana"}]`, VoteCount: 100, VoteAverage: 7},
		{ID: 2, Title: "B", Overview: "a spy drama in london", GenresRaw: `[{"id": 18, "name": "Drama"}]`, CastRaw: `[{"name": "Beto"}]`, VoteCount: 10, VoteAverage: 9},
		{ID: 3, Title: "C", Overview: "a romantic comedy in paris", GenresRaw: `[]`, CastRaw: `[]`, VoteCount: 1000, VoteAverage: 6},
	}
	r, err := recommender.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

type recordingHistory struct {
	mu   sync.Mutex
	docs []database.RecommendationDocument
}

func (h *recordingHistory) Enqueue(doc database.RecommendationDocument) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs = append(h.docs, doc)
	return true
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRecommendEndpoint(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/recommend", `{"title": "A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("falta X-Request-ID")
	}

	var got []recommender.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "B" || got[1].Title != "C" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Genre[0] != "Drama" || got[0].Cast[0] != "Beto" {
		t.Errorf("primer resultado %+v", got[0])
	}

	// genre/cast vacíos salen como [] y no como null
	if !strings.Contains(rec.Body.String(), `"genre":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRecommendNotFound(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{})

	for _, title := range []string{"Missing", "a", " A"} {
		t.Run(title, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/recommend", `{"title": "`+title+`"}`)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d", rec.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Detail != NotFoundDetail {
				t.Errorf("detail = %q", body.Detail)
			}
		})
	}
}

func TestRecommendInvalidBody(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{})

	tests := map[string]string{
		"json roto":    `{"title": `,
		"sin título":   `{}`,
		"título vacío": `{"title": ""}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/recommend", body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

// emptyEngine devuelve una lista vacía para cualquier título.
type emptyEngine struct{ *recommender.Recommender }

func (emptyEngine) GetRecommendations(string) ([]recommender.Movie, error) {
	return []recommender.Movie{}, nil
}

type failingEngine struct{ *recommender.Recommender }

func (failingEngine) GetRecommendations(string) ([]recommender.Movie, error) {
	return nil, &dataset.MalformedRecordError{ID: 9, Field: "cast", Err: errors.New("bad")}
}

func TestRecommendUniform404(t *testing.T) {
	base := testEngine(t)
	for name, eng := range map[string]Engine{
		"lista vacía": emptyEngine{base},
		"mal formado": failingEngine{base},
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, NewRouter(NewHandler(eng), RouterConfig{}), http.MethodPost, "/recommend", `{"title":"A"}`)
			if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), NotFoundDetail) {
				t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRecommendRecordsHistory(t *testing.T) {
	hist := &recordingHistory{}
	router := NewRouter(NewHandler(testEngine(t), WithHistory(hist)), RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(`{"title":"A"}`))
	req.Header.Set("X-Request-ID", "req-123")
	router.ServeHTTP(httptest.NewRecorder(), req)
	doRequest(t, router, http.MethodPost, "/recommend", `{"title":"Nope"}`)

	if len(hist.docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(hist.docs))
	}
	first := hist.docs[0]
	if first.RequestID != "req-123" || first.Title != "A" || first.Outcome != "ok" {
		t.Errorf("doc = %+v", first)
	}
	if len(first.Recommended) != 2 || first.Recommended[0].MovieID != 2 {
		t.Errorf("recommended = %+v", first.Recommended)
	}
	if hist.docs[1].Outcome != "not_found" {
		t.Errorf("outcome = %q", hist.docs[1].Outcome)
	}
}

func TestTopRatedEndpoint(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{})

	rec := doRequest(t, router, http.MethodGet, "/top-rated?n=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []struct {
		Title string  `json:"title"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	// m = cuantil 0.9 de {100, 10, 1000} = 820; solo C califica
	if len(got) != 1 || got[0].Title != "C" {
		t.Errorf("got %+v", got)
	}

	for _, q := range []string{"0", "-1", "abc", "501"} {
		if rec := doRequest(t, router, http.MethodGet, "/top-rated?n="+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("n=%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestStatsAndHealth(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{})

	rec := doRequest(t, router, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats recommender.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Movies != 3 || stats.Titles != 3 {
		t.Errorf("stats = %+v", stats)
	}

	rec = doRequest(t, router, http.MethodGet, "/health", "")
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || !health.Ready || health.Mode != "local" {
		t.Errorf("health = %d %+v", rec.Code, health)
	}
}

func TestHealthNotReady(t *testing.T) {
	eng := recommender.New(dataset.Static{})
	rec := doRequest(t, NewRouter(NewHandler(eng), RouterConfig{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	rec = doRequest(t, NewRouter(NewHandler(eng), RouterConfig{}), http.MethodGet, "/stats", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("stats status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{})
	doRequest(t, router, http.MethodPost, "/recommend", `{"title":"A"}`)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "recommender_requests_total") {
		t.Error("faltan métricas del recomendador")
	}
}

func TestRateLimit(t *testing.T) {
	router := NewRouter(NewHandler(testEngine(t)), RouterConfig{RateLimit: 2})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = doRequest(t, router, http.MethodGet, "/stats", "").Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
	// /health queda fuera del límite
	if rec := doRequest(t, router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
