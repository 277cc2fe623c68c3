package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"macro-dashboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

type FearGreedProvider struct {
	relay   *Relay
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer, relay *Relay, baseURL string) *FearGreedProvider {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = fearGreedBaseURL
	}
	return &FearGreedProvider{
		relay:   relay,
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

func (p *FearGreedProvider) LatestURL() string {
	return p.baseURL + "/fng/?limit=1"
}

func (p *FearGreedProvider) FetchLatest(ctx context.Context) (domain.FearGreedIndex, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-latest")
	defer span.End()

	body, err := p.relay.Raw(ctx, p.LatestURL())
	if err != nil {
		return domain.FearGreedIndex{}, fmt.Errorf("fetch fear & greed: %w", err)
	}

	var payload struct {
		Data []struct {
			Value          json.RawMessage `json:"value"`
			Classification string          `json:"value_classification"`
			Timestamp      json.RawMessage `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.FearGreedIndex{}, fmt.Errorf("decode fear & greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return domain.FearGreedIndex{}, fmt.Errorf("fear & greed response has no rows")
	}

	row := payload.Data[0]
	value, err := looseInt(row.Value)
	if err != nil {
		return domain.FearGreedIndex{}, fmt.Errorf("parse fear & greed value: %w", err)
	}
	ts, err := looseInt(row.Timestamp)
	if err != nil {
		return domain.FearGreedIndex{}, fmt.Errorf("parse fear & greed timestamp: %w", err)
	}
	// Seconds are expected; values already in milliseconds pass through.
	if ts < 1_000_000_000_000 {
		ts *= 1000
	}

	return domain.FearGreedIndex{
		Value:          int(value),
		Classification: row.Classification,
		TimestampMs:    ts,
	}, nil
}

// looseInt accepts a JSON number or a string holding one.
func looseInt(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return int64(f), nil
}
