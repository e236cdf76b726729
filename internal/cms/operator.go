// Package cms adapts the probe to a content management system over its
// REST authoring API and its public delivery surface.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/oklog/ulid/v2"

	"github.com/reedharmon/pubpulse/internal/engine"
)

// Operator drives content mutations through the CMS authoring API.
//
// Create and update responses are validated against the payload schema
// before their fields are trusted; see validatePayload.
type Operator struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

// OperatorConfig configures the authoring-API adapter.
type OperatorConfig struct {
	// BaseURL is the authoring API root, e.g. "https://cms.internal".
	BaseURL string

	// Client is the HTTP client to use. Nil means a fresh client with
	// DefaultClientConfig settings.
	Client *http.Client

	// Headers are added to every request, typically authentication.
	Headers map[string]string
}

// NewOperator builds the authoring-API adapter.
func NewOperator(cfg OperatorConfig) *Operator {
	client := cfg.Client
	if client == nil {
		client = NewHTTPClient(DefaultClientConfig())
	}
	return &Operator{
		baseURL: cfg.BaseURL,
		client:  client,
		headers: cfg.Headers,
	}
}

// nodeRequest is the request body for node mutations.
type nodeRequest struct {
	ID       string `json:"id"`
	PagePath string `json:"pagePath,omitempty"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Create makes a new node and returns its validated payload.
func (o *Operator) Create(ctx context.Context, nodeID string) (engine.Payload, error) {
	body, err := o.do(ctx, http.MethodPost, "/api/nodes", &nodeRequest{ID: nodeID})
	if err != nil {
		return engine.Payload{}, err
	}
	return validatePayload(engine.VerbCreate, nodeID, body)
}

// Update rewrites the node's content with a freshly minted value and
// returns the payload the CMS accepted. Re-sending the old value would
// converge against content already on the page.
func (o *Operator) Update(ctx context.Context, node engine.Node) (engine.Payload, error) {
	req := &nodeRequest{
		ID:       node.ID,
		PagePath: node.PagePath,
		Selector: node.Selector,
		Value:    freshValue(),
		Context:  node.Context,
	}
	body, err := o.do(ctx, http.MethodPut, "/api/nodes/"+url.PathEscape(node.ID), req)
	if err != nil {
		return engine.Payload{}, err
	}
	return validatePayload(engine.VerbUpdate, node.ID, body)
}

// Delete removes the node from the CMS.
func (o *Operator) Delete(ctx context.Context, node engine.Node) error {
	_, err := o.do(ctx, http.MethodDelete, "/api/nodes/"+url.PathEscape(node.ID), nil)
	return err
}

// freshValue mints a value no earlier mutation can have written, so each
// update is observably distinct on the delivery surface.
func freshValue() string {
	return "pubpulse-" + ulid.Make().String()
}

// do issues one authoring-API request and returns the response body, with
// any status outside 2xx reported as an error.
func (o *Operator) do(ctx context.Context, method, path string, payload *nodeRequest) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	u := joinURL(o.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, u, resp.StatusCode)
	}
	return data, nil
}
