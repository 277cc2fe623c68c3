// Package widget implements the poll-and-render unit every live dashboard
// panel is built on: a cached snapshot of the last successful fetch, refreshed
// on a fixed interval and rendered on demand.
package widget

import (
	"context"
	"errors"
	"html/template"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// ErrStopped is returned by Refresh once the widget has been stopped.
var ErrStopped = errors.New("widget stopped")

// FetchFunc performs one request against the widget's data source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// RenderFunc produces the display fragment for a snapshot.
type RenderFunc[T any] func(T) template.HTML

// Observer is told about every finished fetch cycle.
type Observer interface {
	ObserveCycle(widget string, duration time.Duration, err error)
}

// Update is delivered to OnUpdate listeners after each stored snapshot.
type Update struct {
	Widget    string
	HTML      template.HTML
	Snapshot  any
	UpdatedAt time.Time
}

// Renderer is anything that can be placed on the page.
type Renderer interface {
	Name() string
	Render() template.HTML
}

// Live is the type-erased view of a Widget used by the surfaces.
type Live interface {
	Renderer
	Interval() time.Duration
	Start(ctx context.Context)
	Stop()
	Refresh(ctx context.Context) error
	Ready() bool
	UpdatedAt() time.Time
	Current() (any, bool)
	OnUpdate(fn func(Update))
}

type Config struct {
	Name        string
	Interval    time.Duration
	Placeholder template.HTML
	Tracer      trace.Tracer
	Logger      *zap.SugaredLogger
	Observer    Observer
}

type Widget[T any] struct {
	name        string
	interval    time.Duration
	placeholder template.HTML
	fetch       FetchFunc[T]
	render      RenderFunc[T]
	tracer      trace.Tracer
	logger      *zap.SugaredLogger
	observer    Observer

	mu        sync.RWMutex
	snapshot  *T
	updatedAt time.Time
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	done      chan struct{}

	// notifyMu is held from store through listener delivery, and by Stop, so
	// that no listener runs after Stop returns. Always taken before mu.
	notifyMu  sync.Mutex
	listeners []func(Update)
}

var _ Live = (*Widget[struct{}])(nil)

func New[T any](cfg Config, fetch FetchFunc[T], render RenderFunc[T]) *Widget[T] {
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("widget")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Widget[T]{
		name:        cfg.Name,
		interval:    cfg.Interval,
		placeholder: cfg.Placeholder,
		fetch:       fetch,
		render:      render,
		tracer:      cfg.Tracer,
		logger:      cfg.Logger.With("widget", cfg.Name),
		observer:    cfg.Observer,
	}
}

func (w *Widget[T]) Name() string {
	return w.name
}

func (w *Widget[T]) Interval() time.Duration {
	return w.interval
}

// Start runs one fetch cycle immediately and then one every interval until
// Stop is called or ctx is cancelled. Calling Start twice, or after Stop, is a
// no-op.
func (w *Widget[T]) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.started = true
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.schedule(ctx)
}

func (w *Widget[T]) schedule(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	go w.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Cycles are not serialized; a slow fetch may overlap the next one.
			go w.cycle(ctx)
		}
	}
}

func (w *Widget[T]) cycle(ctx context.Context) {
	// Refresh already logged any failure.
	_ = w.Refresh(ctx)
}

// Refresh performs one fetch cycle. On success the snapshot is replaced
// whole; on failure it is left untouched and the error is logged and
// returned.
func (w *Widget[T]) Refresh(ctx context.Context) error {
	if w.isStopped() {
		return ErrStopped
	}

	ctx, span := w.tracer.Start(ctx, "widget."+w.name+".cycle")
	defer span.End()

	start := time.Now()
	value, err := w.fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		if w.isStopped() {
			return ErrStopped
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.logger.Warnw("fetch cycle failed", "error", err, "duration_ms", elapsed.Milliseconds())
		w.observe(elapsed, err)
		return err
	}

	if !w.store(value) {
		return ErrStopped
	}
	w.observe(elapsed, nil)
	return nil
}

func (w *Widget[T]) store(value T) bool {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false
	}
	w.snapshot = &value
	w.updatedAt = time.Now()
	update := Update{
		Widget:    w.name,
		HTML:      w.render(value),
		Snapshot:  value,
		UpdatedAt: w.updatedAt,
	}
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(update)
	}
	return true
}

func (w *Widget[T]) observe(d time.Duration, err error) {
	if w.observer != nil {
		w.observer.ObserveCycle(w.name, d, err)
	}
}

func (w *Widget[T]) isStopped() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stopped
}

// Render returns the placeholder until the first successful cycle and the
// rendered snapshot afterwards.
func (w *Widget[T]) Render() template.HTML {
	w.mu.RLock()
	snap := w.snapshot
	w.mu.RUnlock()

	if snap == nil {
		return w.placeholder
	}
	return w.render(*snap)
}

// Snapshot returns the last successfully fetched value.
func (w *Widget[T]) Snapshot() (T, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.snapshot == nil {
		var zero T
		return zero, false
	}
	return *w.snapshot, true
}

func (w *Widget[T]) Current() (any, bool) {
	v, ok := w.Snapshot()
	if !ok {
		return nil, false
	}
	return v, true
}

func (w *Widget[T]) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot != nil
}

func (w *Widget[T]) UpdatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updatedAt
}

// OnUpdate registers fn to be called after every stored snapshot. fn must not
// call Stop.
func (w *Widget[T]) OnUpdate(fn func(Update)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Stop disables the recurring timer and cancels in-flight requests. Once it
// returns the snapshot is frozen and no listener is called again.
func (w *Widget[T]) Stop() {
	w.notifyMu.Lock()
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.notifyMu.Unlock()
		return
	}
	w.stopped = true
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	w.notifyMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
