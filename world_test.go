// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"errors"
	"testing"

	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

func posAt(x, y, z float64) lin.T {
	t := lin.NewT()
	t.SetLoc(x, y, z)
	return *t
}

// TestScenarioABroadPhaseBalls is spec.md §8 Scenario A: four unit-diameter
// balls positioned so every pair's loose volumes overlap under a 0.2
// looseness margin, then two removed.
func TestScenarioABroadPhaseBalls(t *testing.T) {
	w := New(0.2)
	ball := shape.NewBall(0.5)
	h0 := w.Add(posAt(0, 0, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	h1 := w.Add(posAt(0, 0.5, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	h2 := w.Add(posAt(0.5, 0, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	w.Add(posAt(0.5, 0.5, 0), ball, DefaultGroups(), Contacts(0, 0), nil)

	w.Update()
	if got := w.NumInterferences(); got != 6 {
		t.Fatalf("num interferences after first update = %d, want 6", got)
	}

	if err := w.Remove(h0, h1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	w.Update()
	w.Update()
	if got := w.NumInterferences(); got != 1 {
		t.Fatalf("num interferences after removing two balls = %d, want 1 (got remaining pair %v)", got, h2)
	}
}

// TestScenarioBObjectRemove is spec.md §8 Scenario B.
func TestScenarioBObjectRemove(t *testing.T) {
	// Adjacent balls are spaced fractionally closer than their diameter
	// (rather than exactly touching) so the closed-form sphere/sphere test
	// reports a genuine, not edge-of-precision, overlap.
	w := New(0.05)
	ball := shape.NewBall(0.5)
	h0 := w.Add(posAt(1, 0, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	h1 := w.Add(posAt(1, 0.99, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	h2 := w.Add(posAt(1, 1.98, 0), ball, DefaultGroups(), Contacts(0, 0), nil)

	w.Update()
	started := map[handlePairKey]bool{}
	for _, e := range w.ContactEvents() {
		if e.Kind != ContactStarted {
			t.Fatalf("unexpected event kind on first update: %v", e.Kind)
		}
		started[makeHandlePairKey(e.H1, e.H2)] = true
	}
	if !started[makeHandlePairKey(h0, h1)] || !started[makeHandlePairKey(h1, h2)] {
		t.Fatalf("expected Started for (0,1) and (1,2), got %v", started)
	}
	if started[makeHandlePairKey(h0, h2)] {
		t.Fatalf("balls 0 and 2 are too far apart to generate contacts")
	}

	if err := w.Remove(h0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	w.Update()
	events := w.ContactEvents()
	if len(events) != 1 || events[0].Kind != ContactStopped {
		t.Fatalf("expected exactly one Stopped event after removing ball 0, got %v", events)
	}
	if makeHandlePairKey(events[0].H1, events[0].H2) != makeHandlePairKey(h0, h1) {
		t.Fatalf("Stopped event named the wrong pair: %+v", events[0])
	}

	w.Update()
	if events := w.ContactEvents(); len(events) != 0 {
		t.Fatalf("expected no further events, got %v", events)
	}
}

// TestScenarioCProximityTransitions is spec.md §8 Scenario C: a ball slides
// through another's proximity margin and back out, and the proximity event
// stream must be exactly the four transitions spec.md names.
func TestScenarioCProximityTransitions(t *testing.T) {
	// Looseness margin must cover the full proximity margin (1.5) so the
	// broad phase's loose volumes already overlap — and the narrow phase
	// has created its proximity algorithm — for the whole slide; the
	// looseness margin and the query margin are independent knobs
	// (spec.md §9's deferred-mutation note), and this scenario wants the
	// latter, not the former, driving the transitions.
	w := New(1.6)
	ball := shape.NewBall(0.5)
	// margin 1.5 ⇒ combined margin covers up to 1.5 separation once summed
	// with the other endpoint's own margin of 0.
	still := w.Add(posAt(0, 0, 0), ball, DefaultGroups(), Proximity(1.5), nil)
	moving := w.Add(posAt(3, 0, 0), ball, DefaultGroups(), Proximity(0), nil)

	move := func(x float64) {
		w.SetPosition(moving, posAt(x, 0, 0))
		w.Update()
	}

	var seen []ProximityEvent
	for _, x := range []float64{3, 2.4, 1.9, 1.4, 0.9, 0.4, 0.9, 1.4, 1.9, 2.4, 3} {
		move(x)
		seen = append(seen, w.ProximityEvents()...)
	}
	_ = still

	wantSeq := []struct{ prev, next ProximityState }{
		{Disjoint, WithinMargin},
		{WithinMargin, Intersecting},
		{Intersecting, WithinMargin},
		{WithinMargin, Disjoint},
	}
	if len(seen) != len(wantSeq) {
		t.Fatalf("got %d proximity events, want %d: %+v", len(seen), len(wantSeq), seen)
	}
	for i, e := range seen {
		if e.Prev != wantSeq[i].prev || e.New != wantSeq[i].next {
			t.Errorf("event %d = %v->%v, want %v->%v", i, e.Prev, e.New, wantSeq[i].prev, wantSeq[i].next)
		}
	}
}

// TestScenarioDGroups is spec.md §8 Scenario D: only the pair whose groups
// actually match may generate events.
func TestScenarioDGroups(t *testing.T) {
	w := New(0.1)
	ball := shape.NewBall(0.5)

	// Object 0 only whitelists group 0x2 (object 1); objects 1 and 2
	// accept everything. h1 and h2 sit on opposite sides of h0, each
	// close enough to overlap it but more than a diameter apart from
	// each other, so (1,2) is excluded by geometry and (0,2) purely by
	// the group mismatch — isolating what the group filter alone does.
	g0 := CollisionGroups{Membership: 0x1, Whitelist: 0x2}
	g1 := CollisionGroups{Membership: 0x2, Whitelist: ^GroupBits(0)}
	g2 := CollisionGroups{Membership: 0x4, Whitelist: ^GroupBits(0)}

	h0 := w.Add(posAt(0, 0, 0), ball, g0, Contacts(0, 0), nil)
	h1 := w.Add(posAt(0, 0.6, 0), ball, g1, Contacts(0, 0), nil)
	h2 := w.Add(posAt(0, -0.6, 0), ball, g2, Contacts(0, 0), nil)

	w.Update()
	pairs := map[handlePairKey]bool{}
	for _, e := range w.ContactEvents() {
		pairs[makeHandlePairKey(e.H1, e.H2)] = true
	}
	if !pairs[makeHandlePairKey(h0, h1)] {
		t.Errorf("expected pair (0,1) to generate events")
	}
	if pairs[makeHandlePairKey(h0, h2)] {
		t.Errorf("pair (0,2) must not generate events: object 0's whitelist excludes group 0x4")
	}
	if pairs[makeHandlePairKey(h1, h2)] {
		t.Errorf("pair (1,2) must not generate events: h1 and h2 are more than a diameter apart")
	}
}

// TestRoundTripNoEvents is spec.md §8 property 7: setting an object to the
// same position before each of two updates with nothing else changing
// produces no events on the second update.
func TestRoundTripNoEvents(t *testing.T) {
	w := New(0.1)
	ball := shape.NewBall(0.5)
	// h sits in permanent contact range of the stationary anchor so a
	// buggy round trip (e.g. one that re-evaluates the pair as freshly
	// started) would actually be observable as an event.
	w.Add(posAt(0, 0, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	h := w.Add(posAt(0, 0.2, 0), ball, DefaultGroups(), Contacts(0, 0), nil)

	p := posAt(0, 0.3, 0)
	w.SetPosition(h, p)
	w.Update()
	w.ContactEvents()
	w.ProximityEvents()

	w.SetPosition(h, p)
	w.Update()
	if ce := w.ContactEvents(); len(ce) != 0 {
		t.Errorf("expected no contact events on no-op round trip, got %v", ce)
	}
	if pe := w.ProximityEvents(); len(pe) != 0 {
		t.Errorf("expected no proximity events on no-op round trip, got %v", pe)
	}
}

// TestSelfInteractionDisabled exercises spec.md §4.5's third filter bullet:
// two objects sharing SelfGroup membership with DisableSelfInteraction set
// must never interact even though their group masks otherwise match.
func TestSelfInteractionDisabled(t *testing.T) {
	w := New(0.1)
	ball := shape.NewBall(0.5)
	g := CollisionGroups{Membership: 0x1 | SelfGroup, Whitelist: ^GroupBits(0), DisableSelfInteraction: true}

	w.Add(posAt(0, 0, 0), ball, g, Contacts(0, 0), nil)
	w.Add(posAt(0, 0.2, 0), ball, g, Contacts(0, 0), nil)

	w.Update()
	if n := w.NumInterferences(); n != 0 {
		t.Errorf("self-interaction-disabled pair should not interfere, got %d", n)
	}
}

// TestSetQueryTypeEmitsStoppedFirst exercises spec.md §9's Open Question
// resolution: changing a contact-pair's query type tears down the existing
// interaction (emitting Stopped) before a fresh one is established under
// the new query type.
func TestSetQueryTypeEmitsStoppedFirst(t *testing.T) {
	w := New(0.1)
	ball := shape.NewBall(0.5)
	h0 := w.Add(posAt(0, 0, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	h1 := w.Add(posAt(0, 0.5, 0), ball, DefaultGroups(), Contacts(0, 0), nil)

	w.Update()
	w.ContactEvents()

	if err := w.SetQueryType(h0, Proximity(0.2)); err != nil {
		t.Fatalf("SetQueryType: %v", err)
	}
	events := w.ContactEvents()
	if len(events) != 1 || events[0].Kind != ContactStopped {
		t.Fatalf("expected a Stopped event from the query-type change, got %v", events)
	}
	if makeHandlePairKey(events[0].H1, events[0].H2) != makeHandlePairKey(h0, h1) {
		t.Fatalf("Stopped event named the wrong pair: %+v", events[0])
	}
}

func TestUnknownHandlePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected SetPosition on an unknown handle to panic")
		}
	}()
	w := New(0.1)
	w.SetPosition(Handle(999), posAt(0, 0, 0))
}

func TestDuplicateRemovalReturnsError(t *testing.T) {
	w := New(0.1)
	h := w.Add(posAt(0, 0, 0), shape.NewBall(1), DefaultGroups(), Contacts(0, 0), nil)
	if err := w.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := w.Remove(h); !errors.Is(err, ErrDuplicateRemoval) {
		t.Fatalf("expected ErrDuplicateRemoval removing the same handle twice, got %v", err)
	}
}

func TestSetQueryTypeUnknownHandleReturnsError(t *testing.T) {
	w := New(0.1)
	if err := w.SetQueryType(Handle(999), Proximity(0.2)); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestContactPairsAndProximityPairsQuery(t *testing.T) {
	w := New(0.1)
	ball := shape.NewBall(0.5)
	w.Add(posAt(0, 0, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	w.Add(posAt(0, 0.5, 0), ball, DefaultGroups(), Contacts(0, 0), nil)
	w.Update()

	pairs := w.ContactPairs()
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one live contact pair, got %d", len(pairs))
	}
	if pairs[0].Algo.NumContacts() == 0 {
		t.Errorf("expected the live contact algorithm to report at least one contact")
	}
	if pp := w.ProximityPairs(); len(pp) != 0 {
		t.Errorf("two contacts-only objects should have no live proximity pair, got %d", len(pp))
	}
}

func TestInterferencesWithAABB(t *testing.T) {
	w := New(0.1)
	ball := shape.NewBall(0.5)
	h := w.Add(posAt(5, 5, 5), ball, DefaultGroups(), Contacts(0, 0), nil)
	w.Update()

	var hits []Handle
	w.InterferencesWithAABB(shape.AABB{Min: lin.V3{X: 4, Y: 4, Z: 4}, Max: lin.V3{X: 6, Y: 6, Z: 6}}, func(hh Handle) {
		hits = append(hits, hh)
	})
	if len(hits) != 1 || hits[0] != h {
		t.Fatalf("expected exactly the ball's handle, got %v", hits)
	}
}
