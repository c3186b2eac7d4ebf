// Copyright © 2024 Galvanized Logic Inc.

package collidetest

import (
	"os"
	"testing"

	"github.com/gazed/collide"
)

func load(t *testing.T, path string) *Scenario {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	s, err := LoadScenario(data)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return s
}

func TestScenarioABroadPhaseFourBalls(t *testing.T) {
	s := load(t, "testdata/scenario_a.yaml")
	w, handles, err := s.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(w, handles); err != nil {
		t.Fatal(err)
	}
}

func TestScenarioBObjectRemove(t *testing.T) {
	s := load(t, "testdata/scenario_b.yaml")
	w, handles, err := s.Build()
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.Run(w, handles)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 update steps (remove has no update of its own), got %d", len(results))
	}

	first := results[0]
	started := map[[2]collide.Handle]bool{}
	for _, ev := range first.ContactEvents {
		if ev.Kind == collide.ContactStarted {
			started[[2]collide.Handle{ev.H1, ev.H2}] = true
		}
	}
	if len(started) != 2 {
		t.Fatalf("expected exactly 2 Started pairs on the first update, got %d (%v)", len(started), first.ContactEvents)
	}

	afterRemove := results[1]
	var stoppedCount int
	for _, ev := range afterRemove.ContactEvents {
		if ev.Kind == collide.ContactStopped {
			stoppedCount++
		}
	}
	if stoppedCount != 1 {
		t.Fatalf("expected exactly 1 Stopped event after removing ball 0, got %d (%v)", stoppedCount, afterRemove.ContactEvents)
	}

	final := results[2]
	if len(final.ContactEvents) != 0 {
		t.Fatalf("a subsequent no-op update should emit no further events, got %v", final.ContactEvents)
	}
}

func TestScenarioCProximityTransitions(t *testing.T) {
	s := load(t, "testdata/scenario_c.yaml")
	w, handles, err := s.Build()
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.Run(w, handles)
	if err != nil {
		t.Fatal(err)
	}

	var transitions []collide.ProximityEvent
	for _, r := range results {
		transitions = append(transitions, r.ProximityEvents...)
	}
	want := []struct{ prev, next collide.ProximityState }{
		{collide.Disjoint, collide.WithinMargin},
		{collide.WithinMargin, collide.Intersecting},
		{collide.Intersecting, collide.WithinMargin},
		{collide.WithinMargin, collide.Disjoint},
	}
	if len(transitions) != len(want) {
		t.Fatalf("expected %d proximity transitions, got %d: %+v", len(want), len(transitions), transitions)
	}
	for i, w := range want {
		if transitions[i].Prev != w.prev || transitions[i].New != w.next {
			t.Errorf("transition %d = %v -> %v, want %v -> %v", i, transitions[i].Prev, transitions[i].New, w.prev, w.next)
		}
	}
}

func TestScenarioDGroups(t *testing.T) {
	s := load(t, "testdata/scenario_d.yaml")
	w, handles, err := s.Build()
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.Run(w, handles)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 update step, got %d", len(results))
	}

	h0, h1, h2 := handles[0], handles[1], handles[2]
	saw := map[[2]collide.Handle]bool{}
	for _, ev := range results[0].ContactEvents {
		saw[[2]collide.Handle{ev.H1, ev.H2}] = true
		saw[[2]collide.Handle{ev.H2, ev.H1}] = true
	}
	if !saw[[2]collide.Handle{h0, h1}] {
		t.Error("(object 0, object 1) should generate a contact event under their mutual whitelist")
	}
	if saw[[2]collide.Handle{h0, h2}] {
		t.Error("(object 0, object 2) should be excluded by object 0's whitelist")
	}
	if saw[[2]collide.Handle{h1, h2}] {
		t.Error("(object 1, object 2) should be excluded by geometric separation")
	}
}
