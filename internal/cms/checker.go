package cms

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/reedharmon/pubpulse/internal/engine"
)

// Checker observes the delivery surface over HTTP.
//
// It reports every fetch status as an ordinary result. Errors mean the
// fetch itself broke or a 200 body did not yield the selector's value;
// workers record those and retry.
type Checker struct {
	client  *http.Client
	headers map[string]string
}

// CheckerConfig configures the delivery-surface checker.
type CheckerConfig struct {
	// Client is the HTTP client to use. Nil means a fresh client with
	// DefaultClientConfig settings.
	Client *http.Client

	// Headers are added to every request.
	Headers map[string]string
}

// NewChecker builds the delivery-surface checker.
func NewChecker(cfg CheckerConfig) *Checker {
	client := cfg.Client
	if client == nil {
		client = NewHTTPClient(DefaultClientConfig())
	}
	return &Checker{client: client, headers: cfg.Headers}
}

// CheckDeployed fetches the node's page and extracts the value under its
// selector.
func (c *Checker) CheckDeployed(ctx context.Context, req engine.CheckRequest) (engine.CheckResult, error) {
	resp, err := c.fetch(ctx, req)
	if err != nil {
		return engine.CheckResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return engine.CheckResult{StatusCode: resp.StatusCode}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return engine.CheckResult{StatusCode: resp.StatusCode}, fmt.Errorf("read page: %w", err)
	}
	value, err := ExtractValue(body, req.Selector)
	if err != nil {
		return engine.CheckResult{StatusCode: resp.StatusCode}, err
	}
	return engine.CheckResult{StatusCode: resp.StatusCode, Value: value}, nil
}

// CheckNotFound fetches the node's page; the status code is the whole
// result.
func (c *Checker) CheckNotFound(ctx context.Context, req engine.CheckRequest) (engine.CheckResult, error) {
	resp, err := c.fetch(ctx, req)
	if err != nil {
		return engine.CheckResult{}, err
	}
	defer resp.Body.Close()
	drain(resp.Body)
	return engine.CheckResult{StatusCode: resp.StatusCode}, nil
}

func (c *Checker) fetch(ctx context.Context, req engine.CheckRequest) (*http.Response, error) {
	u := joinURL(req.RootURL, req.PagePath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	return resp, nil
}

// drain empties a response body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
