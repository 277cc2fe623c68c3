package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"macro-dashboard/internal/dashboard"
	"macro-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSources struct {
	failPrices bool
}

func (s *stubSources) FetchPrices(ctx context.Context, ids []string) (domain.PriceBoard, error) {
	if s.failPrices {
		return domain.PriceBoard{}, errors.New("relay error 502: bad gateway")
	}
	return domain.PriceBoard{Quotes: []domain.PriceQuote{{ID: "bitcoin", PriceUSD: 100}}}, nil
}

func (s *stubSources) FetchGlobal(ctx context.Context) (domain.MarketStats, error) {
	return domain.MarketStats{BTCDominancePct: 55, ETHDominancePct: 18}, nil
}

func (s *stubSources) FetchLatest(ctx context.Context) (domain.FearGreedIndex, error) {
	return domain.FearGreedIndex{Value: 63, Classification: "Greed", TimestampMs: 1771009800000}, nil
}

func (s *stubSources) FetchFeed(ctx context.Context, feedURL string) (domain.NewsDigest, error) {
	return domain.NewsDigest{}, nil
}

type stubLive struct{ called bool }

func (s *stubLive) ServeWS(w http.ResponseWriter, r *http.Request) {
	s.called = true
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func setup(t *testing.T, stub *stubSources, adminKey string) (*gin.Engine, *dashboard.App, *stubLive) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	app := dashboard.NewApp(dashboard.Sources{Prices: stub, Market: stub, FearGreed: stub, News: stub}, dashboard.Options{})
	live := &stubLive{}

	r := gin.New()
	New(tracer, app, live, zap.NewNop().Sugar()).RegisterRoutes(r, adminKey)
	return r, app, live
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPage(t *testing.T) {
	r, _, _ := setup(t, &stubSources{}, "")

	w := do(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Loading crypto prices…") {
		t.Fatalf("expected placeholders in page")
	}
}

func TestFragment(t *testing.T) {
	r, app, _ := setup(t, &stubSources{}, "")

	if err := app.Market.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	w := do(r, http.MethodGet, "/fragments/market", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Other Dominance: 27.00%") {
		t.Fatalf("unexpected fragment %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/fragments/fred-charts", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fredgraph.png?id=M2SL") {
		t.Fatalf("unexpected static fragment %d", w.Code)
	}

	if w := do(r, http.MethodGet, "/fragments/unknown", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListWidgets(t *testing.T) {
	r, app, _ := setup(t, &stubSources{}, "")
	_ = app.Prices.Refresh(context.Background())

	w := do(r, http.MethodGet, "/api/widgets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Widgets []WidgetStatus `json:"widgets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Widgets) != 5 {
		t.Fatalf("expected 5 live widgets, got %d", len(body.Widgets))
	}
	prices := body.Widgets[0]
	if prices.Name != "prices" || !prices.Ready || prices.UpdatedAt == nil || prices.IntervalSecs != 60 {
		t.Fatalf("unexpected prices status %+v", prices)
	}
	if market := body.Widgets[1]; market.Ready || market.UpdatedAt != nil {
		t.Fatalf("market should still be loading: %+v", market)
	}
}

func TestGetWidget(t *testing.T) {
	r, app, _ := setup(t, &stubSources{}, "")

	w := do(r, http.MethodGet, "/api/widgets/feargreed", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"snapshot":null`) {
		t.Fatalf("expected null snapshot while loading: %s", w.Body.String())
	}

	_ = app.FearGreed.Refresh(context.Background())
	w = do(r, http.MethodGet, "/api/widgets/feargreed", nil)
	var detail struct {
		Ready    bool                  `json:"ready"`
		Snapshot domain.FearGreedIndex `json:"snapshot"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if !detail.Ready || detail.Snapshot.Value != 63 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	if w := do(r, http.MethodGet, "/api/widgets/market-charts", nil); w.Code != http.StatusNotFound {
		t.Fatalf("static widgets have no snapshot, expected 404 got %d", w.Code)
	}
}

func TestRefreshWidget(t *testing.T) {
	stub := &stubSources{}
	r, app, _ := setup(t, stub, "secret")

	if w := do(r, http.MethodPost, "/api/widgets/prices/refresh", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/widgets/prices/refresh", map[string]string{"X-API-Key": "nope"}); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	auth := map[string]string{"X-API-Key": "secret"}
	w := do(r, http.MethodPost, "/api/widgets/prices/refresh", auth)
	if w.Code != http.StatusOK || !app.Prices.Ready() {
		t.Fatalf("expected refresh to succeed, got %d %s", w.Code, w.Body.String())
	}

	stub.failPrices = true
	w = do(r, http.MethodPost, "/api/widgets/prices/refresh", auth)
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "relay error 502") {
		t.Fatalf("expected 502, got %d %s", w.Code, w.Body.String())
	}
	if html, _ := app.Fragment("prices"); !strings.Contains(string(html), "BITCOIN: $100.00") {
		t.Fatalf("failed refresh must keep snapshot, got %s", html)
	}

	if w := do(r, http.MethodPost, "/api/widgets/nope/refresh", auth); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	app.Stop()
	if w := do(r, http.MethodPost, "/api/widgets/market/refresh", auth); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after stop, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r, app, _ := setup(t, &stubSources{}, "")
	_ = app.Market.Refresh(context.Background())

	w := do(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["widgets_ready"] != float64(1) {
		t.Fatalf("unexpected health %v", body)
	}
}

func TestWebsocketRoute(t *testing.T) {
	r, _, live := setup(t, &stubSources{}, "")
	do(r, http.MethodGet, "/ws", nil)
	if !live.called {
		t.Fatal("expected live stream to serve /ws")
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core).Sugar()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := do(r, http.MethodGet, "/ping", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
	w = do(r, http.MethodGet, "/ping", map[string]string{"X-Request-ID": "abc"})
	if w.Header().Get("X-Request-ID") != "abc" {
		t.Fatal("expected request id to be propagated")
	}

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	fields := entries[1].ContextMap()
	if fields["request_id"] != "abc" || fields["path"] != "/ping" || fields["status"] != int64(200) {
		t.Fatalf("unexpected fields %v", fields)
	}
}
