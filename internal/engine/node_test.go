package engine

import "testing"

func TestRegistry_PutLastWriteWins(t *testing.T) {
	r := newRegistry()
	r.put(Node{ID: "n1", Value: "first", InFlight: true})
	r.put(Node{ID: "n1", Value: "second", Published: true})

	if got := r.len(); got != 1 {
		t.Fatalf("len = %d, want 1", got)
	}
	n, ok := r.get("n1")
	if !ok {
		t.Fatal("get(n1) missing")
	}
	if n.Value != "second" {
		t.Errorf("Value = %q, want %q", n.Value, "second")
	}
	if n.InFlight {
		t.Error("InFlight survived the replacing write")
	}
	if !n.Published {
		t.Error("Published lost in the replacing write")
	}
}

func TestRegistry_PutIsIdempotent(t *testing.T) {
	r := newRegistry()
	n := Node{ID: "n1", Value: "v", Published: true}
	r.put(n)
	r.put(n)

	if got := r.len(); got != 1 {
		t.Errorf("len = %d, want 1", got)
	}
	if got := len(r.order); got != 1 {
		t.Errorf("order entries = %d, want 1", got)
	}
}

func TestRegistry_ScanOrderIsInsertionOrder(t *testing.T) {
	r := newRegistry()
	r.put(Node{ID: "b", InFlight: true})
	r.put(Node{ID: "a"})
	r.put(Node{ID: "c"})

	// Re-putting an existing id must not move it in the scan order.
	r.put(Node{ID: "b", InFlight: false})

	n, ok := r.firstIdle()
	if !ok {
		t.Fatal("firstIdle found nothing")
	}
	if n.ID != "b" {
		t.Errorf("firstIdle = %q, want %q", n.ID, "b")
	}
}

func TestRegistry_FirstIdleSkipsInFlight(t *testing.T) {
	r := newRegistry()
	r.put(Node{ID: "n1", InFlight: true})
	r.put(Node{ID: "n2", InFlight: true})

	if _, ok := r.firstIdle(); ok {
		t.Error("firstIdle found a node while all are in flight")
	}

	r.put(Node{ID: "n2", InFlight: false})
	n, ok := r.firstIdle()
	if !ok {
		t.Fatal("firstIdle found nothing after release")
	}
	if n.ID != "n2" {
		t.Errorf("firstIdle = %q, want %q", n.ID, "n2")
	}
}

func TestRegistry_FirstDeletableNeedsPublished(t *testing.T) {
	r := newRegistry()
	r.put(Node{ID: "n1", Published: false})
	r.put(Node{ID: "n2", Published: true, InFlight: true})

	if _, ok := r.firstDeletable(); ok {
		t.Error("firstDeletable found a node with none eligible")
	}

	r.put(Node{ID: "n3", Published: true})
	n, ok := r.firstDeletable()
	if !ok {
		t.Fatal("firstDeletable found nothing")
	}
	if n.ID != "n3" {
		t.Errorf("firstDeletable = %q, want %q", n.ID, "n3")
	}
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := newRegistry()
	r.put(Node{ID: "n1", Value: "v"})

	snap := r.snapshot()
	snap["n1"] = Node{ID: "n1", Value: "mutated"}
	snap["n2"] = Node{ID: "n2"}

	n, _ := r.get("n1")
	if n.Value != "v" {
		t.Errorf("registry value = %q after snapshot mutation, want %q", n.Value, "v")
	}
	if got := r.len(); got != 1 {
		t.Errorf("len = %d after snapshot mutation, want 1", got)
	}
}

func TestNode_ApplyPayloadKeepsContext(t *testing.T) {
	n := Node{ID: "n1", Context: "seeded", Value: "old"}

	n.applyPayload(Payload{PagePath: "/p.html", Selector: "#c", Value: "new"})
	if n.Context != "seeded" {
		t.Errorf("Context = %q after context-free payload, want %q", n.Context, "seeded")
	}
	if n.Value != "new" {
		t.Errorf("Value = %q, want %q", n.Value, "new")
	}

	n.applyPayload(Payload{PagePath: "/p.html", Selector: "#c", Value: "newer", Context: "fresh"})
	if n.Context != "fresh" {
		t.Errorf("Context = %q, want %q", n.Context, "fresh")
	}
}
