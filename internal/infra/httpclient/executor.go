package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultMaxBody bounds response bodies read by an Executor.
const DefaultMaxBody int64 = 32 << 20

// ResponseData captures the response details and duration.
type ResponseData struct {
	Status    int
	Headers   http.Header
	BodyBytes []byte
	Truncated bool
	Duration  time.Duration
	Attempts  int
}

// maxBackoff caps both the exponential delay and a server's Retry-After.
const maxBackoff = 30 * time.Second

// Executor executes HTTP requests with timing and bounded retries of
// bodiless requests on transient failures.
type Executor struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
	retries int
	backoff time.Duration
}

// ExecutorOption allows configuring an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the default timeout applied to requests.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = timeout }
}

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = client }
}

// WithMaxBody caps the number of body bytes kept per response.
func WithMaxBody(n int64) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// WithRetry retries up to n extra times, waiting base, 2*base, 4*base...
// between attempts.
func WithRetry(n int, base time.Duration) ExecutorOption {
	return func(e *Executor) {
		if n >= 0 {
			e.retries = n
		}
		if base > 0 {
			e.backoff = base
		}
	}
}

// NewExecutor builds an Executor with a default client and timeout.
func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := DefaultConfig()
	e := &Executor{
		client:  New(cfg),
		timeout: cfg.Timeout,
		maxBody: DefaultMaxBody,
		backoff: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do executes the request and returns response data plus total duration.
// The timeout applies to each attempt.
func (e *Executor) Do(ctx context.Context, req *http.Request) (ResponseData, error) {
	start := time.Now()
	retries := e.retries
	if req.Body != nil && req.GetBody == nil {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return ResponseData{Duration: time.Since(start), Attempts: attempt}, err
			}
			req.Body = body
		}

		rd, err := e.once(ctx, req)
		rd.Attempts = attempt + 1
		rd.Duration = time.Since(start)
		if attempt >= retries || !retryable(ctx, rd, err) {
			return rd, err
		}

		wait := e.delay(attempt, rd.Headers)
		select {
		case <-ctx.Done():
			return rd, errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (e *Executor) once(ctx context.Context, req *http.Request) (ResponseData, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.Do(req.WithContext(ctx))
	if err != nil {
		return ResponseData{}, err
	}
	defer resp.Body.Close()

	body, truncated, err := readBounded(resp.Body, e.maxBody)
	if err != nil {
		return ResponseData{Status: resp.StatusCode}, err
	}
	return ResponseData{
		Status:    resp.StatusCode,
		Headers:   resp.Header.Clone(),
		BodyBytes: body,
		Truncated: truncated,
	}, nil
}

func retryable(ctx context.Context, rd ResponseData, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	switch rd.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (e *Executor) delay(attempt int, h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, maxBackoff)
	}
	return min(e.backoff<<attempt, maxBackoff)
}

func readBounded(r io.Reader, maxBytes int64) ([]byte, bool, error) {
	lim := io.LimitReader(r, maxBytes+1)
	b, err := io.ReadAll(lim)
	if err != nil {
		return nil, false, err
	}
	if int64(len(b)) > maxBytes {
		return b[:maxBytes], true, nil
	}
	return b, false, nil
}
