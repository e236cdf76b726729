package engine

import (
	"context"
	"fmt"
	"strings"
)

// Verb identifies the kind of CMS mutation an operation performs.
type Verb string

const (
	// VerbCreate makes a new node on the CMS.
	VerbCreate Verb = "create"
	// VerbUpdate rewrites an existing node's content.
	VerbUpdate Verb = "update"
	// VerbDelete removes a node from the CMS.
	VerbDelete Verb = "delete"
)

// Payload is the node description an operator returns for create and update
// calls. Values arrive in string form regardless of their JSON type.
type Payload struct {
	PagePath string
	Selector string
	Value    string
	Context  string
}

// Operator applies content mutations to the CMS under test.
//
// Implementations validate create and update responses against the payload
// schema and return a *PayloadError when a response is malformed. Any other
// error fails only the calling operation.
type Operator interface {
	// Create makes a new node with the given id and returns its payload.
	Create(ctx context.Context, nodeID string) (Payload, error)

	// Update rewrites the node's content and returns the fresh payload.
	Update(ctx context.Context, node Node) (Payload, error)

	// Delete removes the node from the CMS.
	Delete(ctx context.Context, node Node) error
}

// CheckRequest describes one content check against the delivery surface.
type CheckRequest struct {
	// RootURL is the delivery-surface base the page path resolves against.
	RootURL string

	// PagePath is the site-relative path to fetch.
	PagePath string

	// Selector locates the expected value within the fetched page.
	Selector string
}

// CheckResult is the outcome of one content check.
type CheckResult struct {
	// StatusCode is the HTTP status of the fetch.
	StatusCode int `json:"statusCode"`

	// Value is the extracted content value in string form. Empty unless
	// the fetch returned 200 and the selector matched.
	Value string `json:"value,omitempty"`
}

// ContentChecker observes the delivery surface for converged content.
//
// Unexpected statuses are ordinary results, not errors. Checkers return an
// error only when the fetch itself broke or the selector could not be
// evaluated; workers record such errors as unconverged checks and retry.
type ContentChecker interface {
	// CheckDeployed fetches the node's page and extracts the value under
	// its selector. Used by create and update operations.
	CheckDeployed(ctx context.Context, req CheckRequest) (CheckResult, error)

	// CheckNotFound fetches the node's page expecting it to be gone. The
	// status code is the whole result. Used by delete operations.
	CheckNotFound(ctx context.Context, req CheckRequest) (CheckResult, error)
}

// PayloadError reports an operator response that failed payload validation.
//
// Workers surface it on the engine's fatal channel; the run halts with this
// error instead of marking the one operation failed.
type PayloadError struct {
	Verb   Verb
	NodeID string
	Causes []string
}

func (e *PayloadError) Error() string {
	msg := fmt.Sprintf("%s %s: operator payload failed validation", e.Verb, e.NodeID)
	if len(e.Causes) > 0 {
		msg += ": " + strings.Join(e.Causes, "; ")
	}
	return msg
}
