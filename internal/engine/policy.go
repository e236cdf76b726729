package engine

// decision is a spawn policy's pick for one tick.
type decision struct {
	verb Verb
	node Node
}

// spawnPolicy decides which operation, if any, a tick spawns.
//
// Policies run on the scheduler goroutine and see the registry as of the
// last folded-in worker report.
type spawnPolicy interface {
	// Name identifies the policy in logs and snapshots.
	Name() string

	// Next picks the next operation, or reports false to skip the tick.
	Next(reg *registry, ids *idAllocator) (decision, bool)
}

// poolPolicy spawns update operations against a pre-seeded node pool. Each
// tick targets the first node, in insertion order, with no operation in
// flight; when every pool node is busy the tick spawns nothing.
type poolPolicy struct{}

func (poolPolicy) Name() string { return "pool" }

func (poolPolicy) Next(reg *registry, _ *idAllocator) (decision, bool) {
	n, ok := reg.firstIdle()
	if !ok {
		return decision{}, false
	}
	return decision{verb: VerbUpdate, node: n}, true
}

// lifecyclePolicy drives the run's own nodes through create then delete
// when no pool is configured. The first half of the operation budget mints
// fresh nodes; after that, ticks delete the oldest published node not
// already being worked on.
type lifecyclePolicy struct {
	// limit is the run's operation budget. Creates stop once the count of
	// minted nodes reaches limit/2, rounded down.
	limit   int
	created int
}

func (p *lifecyclePolicy) Name() string { return "lifecycle" }

func (p *lifecyclePolicy) Next(reg *registry, ids *idAllocator) (decision, bool) {
	if p.created < p.limit/2 {
		p.created++
		return decision{verb: VerbCreate, node: Node{ID: ids.nodeID()}}, true
	}
	n, ok := reg.firstDeletable()
	if !ok {
		return decision{}, false
	}
	return decision{verb: VerbDelete, node: n}, true
}
