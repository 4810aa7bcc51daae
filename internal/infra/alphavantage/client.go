// Package alphavantage fetches daily historical prices from the Alpha Vantage API.
package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	json "github.com/goccy/go-json"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/httpclient"
)

const (
	seriesKey     = "Time Series (Daily)"
	adjustedClose = "5. adjusted close"
	closeKey      = "4. close"
	dateLayout    = "2006-01-02"
)

// envelopes are the messages the API returns with a 200 status instead of data.
var envelopes = []string{
	`$["Error Message"]`,
	`$["Note"]`,
	`$["Information"]`,
}

type Client struct {
	exec     *httpclient.Executor
	baseURL  string
	apiKey   string
	function string
	log      *slog.Logger
}

type Option func(*Client)

func WithExecutor(e *httpclient.Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.exec = e
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client from the provider configuration.
func New(cfg domain.ProviderConfig, opts ...Option) *Client {
	fn := cfg.Function
	if fn == "" {
		fn = domain.DefaultConfig().Provider.Function
	}
	c := &Client{
		exec:     httpclient.NewExecutor(httpclient.WithTimeout(cfg.Timeout)),
		baseURL:  cfg.BaseURL,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		function: fn,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HistoricalPrices returns the daily close series of symbol in ascending order.
func (c *Client) HistoricalPrices(ctx context.Context, symbol string) (*domain.DoubleSeries, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, &domain.OpError{Op: "alphavantage.fetch", Kind: domain.KindInvalidConfig,
			Err: errors.New("symbol is required")}
	}
	if c.apiKey == "" {
		return nil, &domain.OpError{Op: "alphavantage.fetch", Kind: domain.KindMissingVar,
			Err: fmt.Errorf("provider api key (set ALPHAVANTAGE_API_KEY or secrets.local.yaml): %w", domain.ErrMissingVar)}
	}

	q := url.Values{}
	q.Set("function", c.function)
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("apikey", c.apiKey)

	req, err := httpclient.BuildGet(ctx, c.baseURL, "query", q)
	if err != nil {
		return nil, err
	}

	resp, err := c.exec.Do(ctx, req)
	if err != nil {
		return nil, &domain.OpError{Op: "alphavantage.fetch", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: %w", symbol, err)}
	}
	c.log.Debug("prices.fetch",
		"symbol", symbol,
		"status", resp.Status,
		"bytes", len(resp.BodyBytes),
		"duration_ms", resp.Duration.Milliseconds(),
	)

	if resp.Status != http.StatusOK {
		return nil, &domain.OpError{Op: "alphavantage.fetch", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: unexpected status %d: %w", symbol, resp.Status, domain.ErrExecution)}
	}
	if resp.Truncated {
		return nil, &domain.OpError{Op: "alphavantage.fetch", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: response body exceeds limit: %w", symbol, domain.ErrExecution)}
	}

	return Decode(symbol, resp.BodyBytes)
}

// Decode parses a daily time series response body.
func Decode(symbol string, body []byte) (*domain.DoubleSeries, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: %w", symbol, err)}
	}
	if msg, ok := envelopeMessage(doc); ok {
		return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: %s: %w", symbol, msg, domain.ErrExecution)}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: %w", symbol, err)}
	}
	raw, ok := payload[seriesKey]
	if !ok {
		return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindNotFound,
			Err: fmt.Errorf("%s: %q missing from response: %w", symbol, seriesKey, domain.ErrNotFound)}
	}

	var days map[string]map[string]string
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
			Err: fmt.Errorf("%s: %w", symbol, err)}
	}

	entries := make([]domain.Entry[float64], 0, len(days))
	for date, fields := range days {
		t, err := time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
				Err: fmt.Errorf("%s: date %q: %w", symbol, date, err)}
		}
		v, ok := fields[adjustedClose]
		if !ok {
			v, ok = fields[closeKey]
		}
		if !ok {
			return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
				Err: fmt.Errorf("%s: no close price on %s", symbol, date)}
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
				Err: fmt.Errorf("%s: price on %s: %w", symbol, date, err)}
		}
		if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			return nil, &domain.OpError{Op: "alphavantage.decode", Kind: domain.KindExecution,
				Err: fmt.Errorf("%s: price on %s is %q, want a finite positive number", symbol, date, v)}
		}
		entries = append(entries, domain.Entry[float64]{Time: t, Item: price})
	}

	slices.SortFunc(entries, func(a, b domain.Entry[float64]) int { return a.Time.Compare(b.Time) })
	return domain.NewDoubleSeries(symbol, entries...), nil
}

func envelopeMessage(doc any) (string, bool) {
	for _, expr := range envelopes {
		v, err := jsonpath.Get(expr, doc)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}
