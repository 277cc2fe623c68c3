package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"macro-dashboard/internal/widget"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const refreshTimeout = 30 * time.Second

// WidgetStatus describes one live widget.
type WidgetStatus struct {
	Name         string     `json:"name"`
	Ready        bool       `json:"ready"`
	UpdatedAt    *time.Time `json:"updated_at"`
	IntervalSecs int        `json:"interval_secs"`
}

// WidgetDetail is WidgetStatus plus the current snapshot, null until the
// first successful fetch.
type WidgetDetail struct {
	WidgetStatus
	Snapshot any `json:"snapshot"`
}

func statusOf(w widget.Live) WidgetStatus {
	s := WidgetStatus{
		Name:         w.Name(),
		Ready:        w.Ready(),
		IntervalSecs: int(w.Interval() / time.Second),
	}
	if at := w.UpdatedAt(); !at.IsZero() {
		s.UpdatedAt = &at
	}
	return s
}

func detailOf(w widget.Live) WidgetDetail {
	snap, _ := w.Current()
	return WidgetDetail{WidgetStatus: statusOf(w), Snapshot: snap}
}

// ListWidgets godoc
// @Summary      List live widgets
// @Description  Returns every polling widget with its readiness, last update time and interval
// @Tags         widgets
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/widgets [get]
func (h *Handler) ListWidgets(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-widgets")
	defer span.End()

	widgets := h.app.Widgets()
	out := make([]WidgetStatus, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, statusOf(w))
	}
	c.JSON(http.StatusOK, gin.H{"widgets": out})
}

// GetWidget godoc
// @Summary      Get a widget snapshot
// @Description  Returns the last successfully fetched snapshot of a widget; snapshot is null while loading
// @Tags         widgets
// @Produce      json
// @Param        name  path  string  true  "Widget name (e.g., prices, market, feargreed)"
// @Success      200  {object}  handler.WidgetDetail
// @Failure      404  {object}  map[string]string
// @Router       /api/widgets/{name} [get]
func (h *Handler) GetWidget(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-widget")
	defer span.End()

	name := c.Param("name")
	span.SetAttributes(attribute.String("widget", name))

	w, ok := h.app.Widget(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown widget: " + name})
		return
	}
	c.JSON(http.StatusOK, detailOf(w))
}

// RefreshWidget godoc
// @Summary      Run a fetch cycle now
// @Description  Runs one fetch cycle for the widget outside its schedule. A failed cycle leaves the snapshot untouched.
// @Tags         widgets
// @Produce      json
// @Param        name       path    string  true   "Widget name"
// @Param        X-API-Key  header  string  false  "Admin API key, required when configured"
// @Success      200  {object}  handler.WidgetDetail
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/widgets/{name}/refresh [post]
func (h *Handler) RefreshWidget(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh-widget")
	defer span.End()

	name := c.Param("name")
	span.SetAttributes(attribute.String("widget", name))

	w, ok := h.app.Widget(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown widget: " + name})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if err := w.Refresh(ctx); err != nil {
		if errors.Is(err, widget.ErrStopped) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detailOf(w))
}
