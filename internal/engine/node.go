package engine

// Node is the registry's view of a single CMS content node.
//
// A record is created the first time an id is referenced, either by the
// seed pool or by a spawned create operation. After that the record is only
// ever replaced wholesale by worker-reported snapshots, in arrival order,
// last write wins.
type Node struct {
	// ID uniquely identifies the node within a run.
	ID string `json:"id"`

	// PagePath is the site-relative path of the page rendering this node.
	PagePath string `json:"pagePath"`

	// Selector locates the node's value on the rendered page. Plain CSS
	// selectors address HTML pages; a "json:" prefix addresses JSON bodies
	// by gjson path.
	Selector string `json:"selector"`

	// Value is the expected content value in string form.
	Value string `json:"value"`

	// Context carries optional operator-supplied context for the node.
	Context string `json:"context,omitempty"`

	// InFlight marks the node as targeted by a live operation. Spawn
	// policies skip in-flight nodes.
	InFlight bool `json:"inFlight"`

	// ExistsOnCMS is the optimistic belief that the node exists on the CMS.
	ExistsOnCMS bool `json:"existsOnCms"`

	// Published is the optimistic belief that the node's content is live.
	Published bool `json:"published"`
}

// applyPayload folds an operator payload into the node. Context is the only
// optional payload field; an absent context keeps the previous one.
func (n *Node) applyPayload(p Payload) {
	n.PagePath = p.PagePath
	n.Selector = p.Selector
	n.Value = p.Value
	if p.Context != "" {
		n.Context = p.Context
	}
}

// registry is the scheduler-owned node table.
//
// Only the scheduler goroutine touches it, so no locking. The insertion
// order index gives spawn policies a stable scan order across ticks.
type registry struct {
	nodes map[string]Node
	order []string
}

func newRegistry() *registry {
	return &registry{nodes: make(map[string]Node)}
}

// put records the node, replacing any existing record with the same id.
func (r *registry) put(n Node) {
	if _, ok := r.nodes[n.ID]; !ok {
		r.order = append(r.order, n.ID)
	}
	r.nodes[n.ID] = n
}

// get returns the record for id.
func (r *registry) get(id string) (Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

func (r *registry) len() int {
	return len(r.nodes)
}

// firstIdle returns the first node, in insertion order, with no operation
// in flight.
func (r *registry) firstIdle() (Node, bool) {
	for _, id := range r.order {
		if n := r.nodes[id]; !n.InFlight {
			return n, true
		}
	}
	return Node{}, false
}

// firstDeletable returns the first published node with no operation in
// flight.
func (r *registry) firstDeletable() (Node, bool) {
	for _, id := range r.order {
		if n := r.nodes[id]; n.Published && !n.InFlight {
			return n, true
		}
	}
	return Node{}, false
}

// snapshot copies the registry contents, keyed by node id.
func (r *registry) snapshot() map[string]Node {
	out := make(map[string]Node, len(r.nodes))
	for id, n := range r.nodes {
		out[id] = n
	}
	return out
}
