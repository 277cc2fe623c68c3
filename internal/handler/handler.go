package handler

import (
	"html/template"
	"io"
	"net/http"

	"macro-dashboard/internal/widget"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Dashboard is the read side of the widget set that the routes serve.
type Dashboard interface {
	Widgets() []widget.Live
	Widget(name string) (widget.Live, bool)
	Fragment(name string) (template.HTML, bool)
	RenderPage(w io.Writer) error
}

// LiveStream upgrades browser connections for pushed fragment updates.
type LiveStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Handler struct {
	tracer trace.Tracer
	app    Dashboard
	live   LiveStream
	logger *zap.SugaredLogger
}

func New(tracer trace.Tracer, app Dashboard, live LiveStream, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		tracer: tracer,
		app:    app,
		live:   live,
		logger: logger,
	}
}

// RegisterRoutes mounts the page, fragment, JSON and websocket routes. The
// manual refresh route requires adminKey when it is set.
func (h *Handler) RegisterRoutes(r *gin.Engine, adminKey string) {
	r.GET("/", h.Page)
	r.GET("/fragments/:name", h.Fragment)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/widgets", h.ListWidgets)
	api.GET("/widgets/:name", h.GetWidget)
	api.POST("/widgets/:name/refresh", APIKeyAuth(adminKey), h.RefreshWidget)

	if h.live != nil {
		r.GET("/ws", gin.WrapF(h.live.ServeWS))
	}
}
