package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"macro-dashboard/internal/domain"
	"macro-dashboard/internal/widget"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu    sync.Mutex
	calls int
	keys  map[string][]byte
	ttl   time.Duration
	err   error
}

func (f *fakeWriter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	if f.keys == nil {
		f.keys = map[string][]byte{}
	}
	f.keys[key] = value.([]byte)
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestSnapshotMirrorWrite(t *testing.T) {
	w := &fakeWriter{}
	m := NewSnapshotMirror(w, 2*time.Hour, zap.NewNop().Sugar())

	at := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	err := m.Write(context.Background(), widget.Update{
		Widget:    "market",
		Snapshot:  domain.MarketStats{TotalMarketCapUSD: 1, BTCDominancePct: 55, ETHDominancePct: 18},
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, ok := w.keys["dashboard:snapshot:market"]
	if !ok {
		t.Fatalf("expected mirror key, got %v", w.keys)
	}
	if w.ttl != 2*time.Hour {
		t.Fatalf("unexpected ttl %v", w.ttl)
	}

	var doc MirroredSnapshot
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("invalid document: %v", err)
	}
	if doc.Widget != "market" || !doc.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected document %+v", doc)
	}
	var stats domain.MarketStats
	if err := json.Unmarshal(doc.Snapshot, &stats); err != nil || stats.BTCDominancePct != 55 {
		t.Fatalf("unexpected snapshot %s (%v)", doc.Snapshot, err)
	}
}

func TestSnapshotMirrorBreakerOpens(t *testing.T) {
	w := &fakeWriter{err: errors.New("redis down")}
	m := NewSnapshotMirror(w, time.Minute, zap.NewNop().Sugar())

	for i := 0; i < 5; i++ {
		if err := m.Write(context.Background(), widget.Update{Widget: "prices", Snapshot: domain.PriceBoard{}}); err == nil {
			t.Fatal("expected error")
		}
	}
	if w.calls != 3 {
		t.Fatalf("expected breaker to stop calls after 3 failures, got %d", w.calls)
	}
}

func TestSnapshotMirrorRun(t *testing.T) {
	w := &fakeWriter{}
	m := NewSnapshotMirror(w, time.Minute, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.Publish(widget.Update{Widget: "feargreed", Snapshot: domain.FearGreedIndex{Value: 50}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		w.mu.Lock()
		_, ok := w.keys[SnapshotKey("feargreed")]
		w.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("update was not mirrored")
}
