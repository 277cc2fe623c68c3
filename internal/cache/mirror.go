package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"macro-dashboard/internal/metrics"
	"macro-dashboard/internal/widget"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const keyPrefix = "dashboard:snapshot:"

// SnapshotKey is the Redis key holding a widget's latest snapshot.
func SnapshotKey(widgetName string) string {
	return keyPrefix + widgetName
}

type snapshotWriter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// MirroredSnapshot is the JSON document stored under SnapshotKey.
type MirroredSnapshot struct {
	Widget    string          `json:"widget"`
	UpdatedAt time.Time       `json:"updated_at"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// SnapshotMirror copies every stored widget snapshot to Redis for outside
// readers. Writes happen on a background worker behind a circuit breaker, so a
// slow or dead Redis never holds up a widget.
type SnapshotMirror struct {
	client  snapshotWriter
	ttl     time.Duration
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
	queue   chan widget.Update
}

func NewSnapshotMirror(client snapshotWriter, ttl time.Duration, logger *zap.SugaredLogger) *SnapshotMirror {
	m := &SnapshotMirror{
		client:  client,
		ttl:     ttl,
		timeout: 2 * time.Second,
		logger:  logger,
		queue:   make(chan widget.Update, 64),
	}
	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "snapshot-mirror",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Infow("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return m
}

// Publish queues u for writing. It never blocks; updates are dropped when the
// queue is full.
func (m *SnapshotMirror) Publish(u widget.Update) {
	select {
	case m.queue <- u:
	default:
		metrics.MirrorWrites.WithLabelValues("dropped").Inc()
		m.logger.Warnw("snapshot mirror queue full, dropping update", "widget", u.Widget)
	}
}

// Run drains the queue until ctx is cancelled.
func (m *SnapshotMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-m.queue:
			if err := m.Write(ctx, u); err != nil {
				m.logger.Warnw("snapshot mirror write failed", "widget", u.Widget, "error", err)
			}
		}
	}
}

// Write stores one update synchronously.
func (m *SnapshotMirror) Write(ctx context.Context, u widget.Update) error {
	payload, err := json.Marshal(u.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	doc, err := json.Marshal(MirroredSnapshot{Widget: u.Widget, UpdatedAt: u.UpdatedAt, Snapshot: payload})
	if err != nil {
		return fmt.Errorf("encode mirror document: %w", err)
	}

	_, err = m.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		return nil, m.client.Set(ctx, SnapshotKey(u.Widget), doc, m.ttl).Err()
	})
	if err != nil {
		metrics.MirrorWrites.WithLabelValues("failure").Inc()
		return err
	}
	metrics.MirrorWrites.WithLabelValues("success").Inc()
	return nil
}
