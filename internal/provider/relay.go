package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const defaultRelayURL = "https://api.allorigins.win"

type RelayMode string

const (
	RelayModeRelay  RelayMode = "relay"
	RelayModeDirect RelayMode = "direct"
)

// Relay performs upstream GETs through an allorigins-style CORS relay, or
// straight to the upstream in direct mode. All widgets share one Relay so the
// limiter bounds the combined request rate against the public relay.
type Relay struct {
	client  *http.Client
	baseURL string
	mode    RelayMode
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewRelay allows a burst of 8 requests, refilled at one every 2 seconds.
func NewRelay(tracer trace.Tracer, baseURL string, mode RelayMode) *Relay {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultRelayURL
	}
	if mode != RelayModeDirect {
		mode = RelayModeRelay
	}
	return &Relay{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		mode:    mode,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 8),
	}
}

func (r *Relay) Mode() RelayMode {
	return r.mode
}

// RawURL is the address that returns the upstream body unchanged.
func (r *Relay) RawURL(target string) string {
	if r.mode == RelayModeDirect {
		return target
	}
	return r.baseURL + "/raw?url=" + url.QueryEscape(target)
}

// EnvelopeURL is the address that wraps the upstream body in {"contents": ...}.
func (r *Relay) EnvelopeURL(target string) string {
	if r.mode == RelayModeDirect {
		return target
	}
	return r.baseURL + "/get?url=" + url.QueryEscape(target)
}

// Raw fetches target and returns the upstream body.
func (r *Relay) Raw(ctx context.Context, target string) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "relay.raw")
	defer span.End()
	span.SetAttributes(attribute.String("relay.target", target))

	return r.doRequest(ctx, r.RawURL(target), "application/json")
}

// Contents fetches target and returns the upstream body as text. In relay mode
// the body is unwrapped from the relay's JSON envelope.
func (r *Relay) Contents(ctx context.Context, target string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "relay.contents")
	defer span.End()
	span.SetAttributes(attribute.String("relay.target", target))

	if r.mode == RelayModeDirect {
		body, err := r.doRequest(ctx, target, "application/rss+xml, application/atom+xml, application/xml, text/xml")
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	body, err := r.doRequest(ctx, r.EnvelopeURL(target), "application/json")
	if err != nil {
		return "", err
	}

	// Shape: {"contents": "<rss ...>", "status": {"url": "...", "http_code": 200}}
	var envelope struct {
		Contents *string `json:"contents"`
		Status   struct {
			HTTPCode int `json:"http_code"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode relay envelope: %w", err)
	}
	if envelope.Contents == nil {
		return "", fmt.Errorf("relay envelope has no contents")
	}
	if envelope.Status.HTTPCode >= http.StatusBadRequest {
		return "", fmt.Errorf("relay upstream status %d", envelope.Status.HTTPCode)
	}
	return *envelope.Contents, nil
}

func (r *Relay) doRequest(ctx context.Context, u, accept string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("relay error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}
