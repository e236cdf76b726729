package engine

import "testing"

func TestPoolPolicy_Next(t *testing.T) {
	var ids idAllocator
	p := poolPolicy{}

	reg := newRegistry()
	if _, ok := p.Next(reg, &ids); ok {
		t.Error("empty registry produced a decision")
	}

	reg.put(Node{ID: "n1", InFlight: true})
	reg.put(Node{ID: "n2"})
	dec, ok := p.Next(reg, &ids)
	if !ok {
		t.Fatal("idle node not picked")
	}
	if dec.verb != VerbUpdate {
		t.Errorf("verb = %q, want %q", dec.verb, VerbUpdate)
	}
	if dec.node.ID != "n2" {
		t.Errorf("node = %q, want %q", dec.node.ID, "n2")
	}

	reg.put(Node{ID: "n2", InFlight: true})
	if _, ok := p.Next(reg, &ids); ok {
		t.Error("all-busy pool produced a decision")
	}
}

func TestLifecyclePolicy_CreatePhase(t *testing.T) {
	// An odd budget rounds the create share down: limit 5 mints 2 nodes.
	var ids idAllocator
	p := &lifecyclePolicy{limit: 5}
	reg := newRegistry()

	for i := 0; i < 2; i++ {
		dec, ok := p.Next(reg, &ids)
		if !ok {
			t.Fatalf("create %d: no decision", i)
		}
		if dec.verb != VerbCreate {
			t.Fatalf("create %d: verb = %q, want %q", i, dec.verb, VerbCreate)
		}
		reg.put(dec.node)
	}

	// The third pick must switch to delete, but nothing is published yet.
	if _, ok := p.Next(reg, &ids); ok {
		t.Error("delete phase produced a decision with nothing published")
	}
}

func TestLifecyclePolicy_DeletesOldestPublished(t *testing.T) {
	var ids idAllocator
	p := &lifecyclePolicy{limit: 2}
	reg := newRegistry()

	dec, ok := p.Next(reg, &ids)
	if !ok || dec.verb != VerbCreate {
		t.Fatalf("first pick = %+v ok=%v, want a create", dec, ok)
	}
	minted := dec.node.ID
	if minted != "node-1" {
		t.Errorf("minted id = %q, want %q", minted, "node-1")
	}

	// The minted node converges: published, not in flight.
	reg.put(Node{ID: minted, Published: true})

	dec, ok = p.Next(reg, &ids)
	if !ok {
		t.Fatal("delete phase found nothing with a published node available")
	}
	if dec.verb != VerbDelete {
		t.Errorf("verb = %q, want %q", dec.verb, VerbDelete)
	}
	if dec.node.ID != minted {
		t.Errorf("delete target = %q, want %q", dec.node.ID, minted)
	}
}

func TestLifecyclePolicy_SkipsInFlightNodes(t *testing.T) {
	var ids idAllocator
	p := &lifecyclePolicy{limit: 2, created: 1}
	reg := newRegistry()
	reg.put(Node{ID: "node-1", Published: true, InFlight: true})

	if _, ok := p.Next(reg, &ids); ok {
		t.Error("in-flight node picked for delete")
	}
}
