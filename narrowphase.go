// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// handlePairKey canonically identifies an unordered pair of object handles,
// mirroring broadphase.go's pairKey but over Handle instead of proxyID.
type handlePairKey struct{ a, b Handle }

func makeHandlePairKey(h1, h2 Handle) handlePairKey {
	if h1 < h2 {
		return handlePairKey{a: h1, b: h2}
	}
	return handlePairKey{a: h2, b: h1}
}

// algoTable is an insertion-ordered map from handle pair to algorithm
// instance, for the same determinism reason broadphase.go's pairSet tracks
// order separately from membership.
type algoTable[V any] struct {
	entries map[handlePairKey]V
	order   []handlePairKey
}

func newAlgoTable[V any]() *algoTable[V] {
	return &algoTable[V]{entries: map[handlePairKey]V{}}
}

func (t *algoTable[V]) get(k handlePairKey) (V, bool) {
	v, ok := t.entries[k]
	return v, ok
}

func (t *algoTable[V]) set(k handlePairKey, v V) {
	if _, exists := t.entries[k]; !exists {
		t.order = append(t.order, k)
	}
	t.entries[k] = v
}

func (t *algoTable[V]) delete(k handlePairKey) {
	if _, exists := t.entries[k]; !exists {
		return
	}
	delete(t.entries, k)
	kept := t.order[:0]
	for _, e := range t.order {
		if e != k {
			kept = append(kept, e)
		}
	}
	t.order = kept
}

func (t *algoTable[V]) each(f func(k handlePairKey, v V)) {
	for _, k := range t.order {
		f(k, t.entries[k])
	}
}

// objectLookup is how narrowPhase reaches into the world's object store
// without importing it directly; World supplies a closure over its own
// object map. ok is false for a handle the world no longer (or not yet)
// knows about.
type objectLookup func(h Handle) (t *lin.T, s shape.Shape, q QueryType, stamp uint64, ok bool)

// narrowPhase owns per-pair algorithm instances and drives them, per
// spec.md §4.4. It holds no reference to the object store between calls:
// every method that needs object data takes an objectLookup.
type narrowPhase struct {
	contacts   *ContactDispatcher
	proximity  *ProximityDispatcher
	contactAlgos   *algoTable[ContactAlgorithm]
	proximityAlgos *algoTable[ProximityAlgorithm]
}

func newNarrowPhase(contacts *ContactDispatcher, proximity *ProximityDispatcher) *narrowPhase {
	return &narrowPhase{
		contacts:       contacts,
		proximity:      proximity,
		contactAlgos:   newAlgoTable[ContactAlgorithm](),
		proximityAlgos: newAlgoTable[ProximityAlgorithm](),
	}
}

// handleInteraction reacts to a broad-phase started/stopped report (the
// ordinary, non-removal path — a pair's loose volumes simply stopped
// overlapping). On started, it creates algorithm instances via the
// dispatchers, silently doing nothing if a dispatcher miss occurs (spec.md
// §7). On stopped, it tears the pair down and, per spec.md §4.4, itself
// emits Stopped / a proximity-lost event for any side that had reached a
// non-trivial state.
func (np *narrowPhase) handleInteraction(h1, h2 Handle, started bool, lookup objectLookup, contactEvents *eventQueue[ContactEvent], proximityEvents *eventQueue[ProximityEvent]) {
	key := makeHandlePairKey(h1, h2)

	if !started {
		if algo, ok := np.contactAlgos.get(key); ok {
			if algo.NumContacts() > 0 {
				contactEvents.push(ContactEvent{Kind: ContactStopped, H1: h1, H2: h2})
			}
			np.contactAlgos.delete(key)
		}
		if algo, ok := np.proximityAlgos.get(key); ok {
			if prev := algo.Proximity(); prev != Disjoint {
				proximityEvents.push(ProximityEvent{H1: h1, H2: h2, Prev: prev, New: Disjoint})
			}
			np.proximityAlgos.delete(key)
		}
		return
	}

	_, s1, q1, _, ok1 := lookup(h1)
	_, s2, q2, _, ok2 := lookup(h2)
	if !ok1 || !ok2 {
		return
	}

	if q1.Kind == ContactsQuery && q2.Kind == ContactsQuery {
		if algo, _, ok := np.contacts.New(s1.Tag(), s2.Tag()); ok {
			np.contactAlgos.set(key, algo)
		}
	}
	if q1.Kind == ProximityQuery || q2.Kind == ProximityQuery {
		if algo, _, ok := np.proximity.New(s1.Tag(), s2.Tag()); ok {
			np.proximityAlgos.set(key, algo)
		}
	}
}

// pairState peeks at a tracked pair's current contact/proximity state
// without tearing it down, for World.Remove to decide which events an
// object removal should emit before calling handleRemoval (spec.md §4.5's
// remove operation names this as the world's responsibility, not the
// narrow phase's).
func (np *narrowPhase) pairState(h1, h2 Handle) (hadContacts bool, priorProximity ProximityState, hadProximity bool) {
	key := makeHandlePairKey(h1, h2)
	if algo, ok := np.contactAlgos.get(key); ok {
		hadContacts = algo.NumContacts() > 0
	}
	if algo, ok := np.proximityAlgos.get(key); ok {
		priorProximity = algo.Proximity()
		hadProximity = priorProximity != Disjoint
	}
	return hadContacts, priorProximity, hadProximity
}

// handleRemoval erases both maps' entries for (h1, h2) without emitting
// anything: spec.md §4.4 gives event emission for a removed pair to the
// world (see pairState), which must be called first.
func (np *narrowPhase) handleRemoval(h1, h2 Handle) {
	key := makeHandlePairKey(h1, h2)
	np.contactAlgos.delete(key)
	np.proximityAlgos.delete(key)
}

func proximityMargin(q QueryType) float64 {
	if q.Kind == ProximityQuery {
		return q.Margin
	}
	return 0
}

// update drives every tracked pair whose either endpoint was modified this
// tick, per spec.md §4.4, emitting contact Started/Stopped on a 0↔n
// transition in contact count and a ProximityEvent whenever the three-
// valued relation changes.
func (np *narrowPhase) update(lookup objectLookup, timestamp uint64, contactEvents *eventQueue[ContactEvent], proximityEvents *eventQueue[ProximityEvent]) {
	np.contactAlgos.each(func(key handlePairKey, algo ContactAlgorithm) {
		t1, s1, q1, stamp1, ok1 := lookup(key.a)
		t2, s2, q2, stamp2, ok2 := lookup(key.b)
		if !ok1 || !ok2 {
			return
		}
		if stamp1 != timestamp && stamp2 != timestamp {
			return
		}
		if q1.Kind != ContactsQuery || q2.Kind != ContactsQuery {
			panic(ErrQueryTypeMismatch)
		}

		prediction := q1.Prediction + q1.AngularPrediction + q2.Prediction + q2.AngularPrediction
		hadContacts := algo.NumContacts() > 0
		algo.Update(t1, s1, t2, s2, prediction)
		hasContacts := algo.NumContacts() > 0

		switch {
		case !hadContacts && hasContacts:
			contactEvents.push(ContactEvent{Kind: ContactStarted, H1: key.a, H2: key.b})
		case hadContacts && !hasContacts:
			contactEvents.push(ContactEvent{Kind: ContactStopped, H1: key.a, H2: key.b})
		}
	})

	np.proximityAlgos.each(func(key handlePairKey, algo ProximityAlgorithm) {
		t1, s1, q1, stamp1, ok1 := lookup(key.a)
		t2, s2, q2, stamp2, ok2 := lookup(key.b)
		if !ok1 || !ok2 {
			return
		}
		if stamp1 != timestamp && stamp2 != timestamp {
			return
		}

		margin := proximityMargin(q1) + proximityMargin(q2)
		prev := algo.Proximity()
		algo.Update(t1, s1, t2, s2, margin)
		next := algo.Proximity()
		if next != prev {
			proximityEvents.push(ProximityEvent{H1: key.a, H2: key.b, Prev: prev, New: next})
		}
	})
}
