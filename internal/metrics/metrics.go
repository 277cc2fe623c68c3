package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetch cycles
	WidgetCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_widget_cycles_total",
		Help: "Fetch cycles by widget and outcome",
	}, []string{"widget", "outcome"})

	WidgetCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_widget_cycle_duration_seconds",
		Help:    "Time taken by one fetch cycle",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"widget"})

	WidgetLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dashboard_widget_last_success_timestamp_seconds",
		Help: "Unix time of the last successful fetch cycle",
	}, []string{"widget"})

	// Surfaces
	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_live_clients",
		Help: "Connected websocket clients",
	})

	MirrorWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_snapshot_mirror_writes_total",
		Help: "Snapshot mirror writes by outcome",
	}, []string{"outcome"})
)

// CycleObserver records fetch cycles into the widget metrics.
type CycleObserver struct{}

func (CycleObserver) ObserveCycle(widget string, duration time.Duration, err error) {
	WidgetCycleDuration.WithLabelValues(widget).Observe(duration.Seconds())
	if err != nil {
		WidgetCycles.WithLabelValues(widget, "failure").Inc()
		return
	}
	WidgetCycles.WithLabelValues(widget, "success").Inc()
	WidgetLastSuccess.WithLabelValues(widget).Set(float64(time.Now().Unix()))
}
