package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pcd-recommender/internal/metrics"
)

type fakeSink struct {
	mu   sync.Mutex
	docs []RecommendationDocument
	err  error
}

func (f *fakeSink) SaveRecommendation(_ context.Context, doc RecommendationDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timeout esperando condición")
}

func TestHistoryWriterWritesQueuedDocs(t *testing.T) {
	sink := &fakeSink{}
	w := NewHistoryWriter(sink, 8, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	for i := 0; i < 5; i++ {
		if !w.Enqueue(RecommendationDocument{RequestID: "r", Title: "Avatar"}) {
			t.Fatal("Enqueue descartó con cola libre")
		}
	}
	waitFor(t, func() bool { return sink.count() == 5 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
}

func TestHistoryWriterDrainsOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	w := NewHistoryWriter(sink, 8, 3)
	for i := 0; i < 4; i++ {
		w.Enqueue(RecommendationDocument{Title: "Avatar"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.Serve(ctx)

	if got := sink.count(); got != 4 {
		t.Errorf("escritos = %d, want 4", got)
	}
}

func TestHistoryWriterDropsWhenFull(t *testing.T) {
	w := NewHistoryWriter(&fakeSink{}, 1, 3)
	before := testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("dropped"))

	if !w.Enqueue(RecommendationDocument{}) {
		t.Fatal("el primero debería entrar")
	}
	if w.Enqueue(RecommendationDocument{}) {
		t.Fatal("el segundo debería descartarse")
	}
	if d := testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("dropped")) - before; d != 1 {
		t.Errorf("dropped delta = %v, want 1", d)
	}
}

func TestHistoryWriterBreakerOpens(t *testing.T) {
	sink := &fakeSink{err: errors.New("mongo caído")}
	w := NewHistoryWriter(sink, 8, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		w.write(ctx, RecommendationDocument{})
	}
	if got := w.State(); got != "open" {
		t.Fatalf("State = %q, want open", got)
	}

	before := testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("breaker_open"))
	w.write(ctx, RecommendationDocument{})
	if d := testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("breaker_open")) - before; d != 1 {
		t.Errorf("breaker_open delta = %v, want 1", d)
	}
}
