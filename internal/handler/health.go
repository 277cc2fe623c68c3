package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the service status and how many live widgets hold data
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	widgets := h.app.Widgets()
	ready := 0
	for _, w := range widgets {
		if w.Ready() {
			ready++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"widgets":       len(widgets),
		"widgets_ready": ready,
	})
}
