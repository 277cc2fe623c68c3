package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Page renders the whole dashboard with every widget's current fragment.
func (h *Handler) Page(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.page")
	defer span.End()

	var buf bytes.Buffer
	if err := h.app.RenderPage(&buf); err != nil {
		h.logger.Errorw("render page failed", "error", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Fragment renders one widget's current state as an HTML fragment.
func (h *Handler) Fragment(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.fragment")
	defer span.End()

	name := c.Param("name")
	span.SetAttributes(attribute.String("widget", name))

	html, ok := h.app.Fragment(name)
	if !ok {
		c.String(http.StatusNotFound, "unknown widget: %s", name)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
