// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"strconv"

	"github.com/katalvlaran/lvlath/core"

	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// World is the collision world of spec.md §4.5: the object store, the
// broad/narrow phase glue, group filtering, and the event queues a caller
// drains after each Update. All exported methods require exclusive access
// (spec.md §5 — single-threaded, externally sequenced); World does no
// internal locking of its own, matching vu/physics's Simulate, which is
// likewise only ever driven by one goroutine at a time.
type World struct {
	objects  map[Handle]*object
	nextID   Handle
	broad    *broadPhase
	narrow   *narrowPhase

	// interactions mirrors spec.md §4.5's "interaction-graph: for each
	// handle, the set of currently-overlapping counterpart handles" as
	// an undirected, unweighted lvlath graph keyed by handle strings,
	// kept in lockstep with the broad phase's started/stopped deltas
	// rather than recomputed. edgeIDs remembers the id AddEdge assigned
	// each pair, since lvlath's RemoveEdge takes an edge id, not a pair
	// of endpoints.
	interactions *core.Graph
	edgeIDs      map[handlePairKey]string

	timestamp uint64

	contactEvents   eventQueue[ContactEvent]
	proximityEvents eventQueue[ProximityEvent]
}

// New constructs a World with the given broad-phase looseness margin
// (spec.md §6's "new(looseness_margin: real)") and the default contact and
// proximity dispatchers. Call SetDispatchers before any object is added to
// use custom dispatchers instead.
func New(loosenessMargin float64) *World {
	w := &World{
		objects:      map[Handle]*object{},
		broad:        newBroadPhase(loosenessMargin),
		interactions: core.NewGraph(core.WithDirected(false)),
		edgeIDs:      map[handlePairKey]string{},
	}
	w.narrow = newNarrowPhase(NewContactDispatcher(), NewProximityDispatcher())
	return w
}

// SetDispatchers replaces the narrow phase's contact and proximity
// dispatchers (spec.md §6's "default dispatchers are provided but
// replaceable"). Call it before any object generates its first
// interaction; it does not touch algorithm instances already in flight.
func (w *World) SetDispatchers(contacts *ContactDispatcher, proximity *ProximityDispatcher) {
	w.narrow.contacts = contacts
	w.narrow.proximity = proximity
}

func vertexID(h Handle) string { return strconv.FormatUint(uint64(h), 10) }

// Add allocates a new collision object at pos with the given shape, groups,
// and query type, and creates its broad-phase proxy (spec.md §4.5's add
// operation). The object joins no interaction until the next Update.
func (w *World) Add(pos lin.T, s shape.Shape, groups CollisionGroups, query QueryType, userData any) Handle {
	w.nextID++
	h := w.nextID

	obj := &object{handle: h, transform: pos, shape: s, groups: groups, query: query, userData: userData, stamp: w.timestamp + 1}
	bv := s.AABB(&pos, 0)
	obj.proxy = w.broad.createProxy(h, bv)
	w.objects[h] = obj

	_ = w.interactions.AddVertex(vertexID(h))
	return h
}

// Object returns the live state of h for read access (position, shape,
// groups, query type, user data). ok is false for an unknown or removed
// handle.
func (w *World) Object(h Handle) (pos lin.T, s shape.Shape, groups CollisionGroups, query QueryType, userData any, ok bool) {
	obj, found := w.objects[h]
	if !found {
		return lin.T{}, nil, CollisionGroups{}, QueryType{}, nil, false
	}
	return obj.transform, obj.shape, obj.groups, obj.query, obj.userData, true
}

// SetPosition updates h's stored transform, deferring a broad-phase move
// if the new tight bounding volume escapes the proxy's loose volume
// (spec.md §4.5). Panics with ErrUnknownHandle for an unknown handle —
// driving an object that does not exist is a caller bug, not a recoverable
// condition (spec.md §7).
func (w *World) SetPosition(h Handle, pos lin.T) {
	obj, ok := w.objects[h]
	if !ok {
		panic(ErrUnknownHandle)
	}
	obj.transform = pos
	obj.stamp = w.timestamp + 1
	bv := obj.shape.AABB(&pos, 0)
	w.broad.deferredSetBV(obj.proxy, bv)
}

// SetQueryType changes h's query configuration. Per spec.md §9's Open
// Question resolution: any existing narrow-phase entries involving h are
// torn down first, emitting Stopped / a proximity-lost event for whichever
// side had reached a non-trivial state, exactly as a broad-phase-driven
// separation would. Since the broad phase never re-reports a pair whose
// loose volumes keep overlapping, each pair torn down this way is then
// restarted at once with a fresh algorithm under the new query type, which
// the next Update drives like any new pair. Returns ErrUnknownHandle for an
// unknown handle rather than panicking — unlike SetPosition's handle
// lookup, this is one of the API boundaries that reports caller errors
// instead of treating them as an internal invariant violation.
func (w *World) SetQueryType(h Handle, qt QueryType) error {
	obj, ok := w.objects[h]
	if !ok {
		return ErrUnknownHandle
	}
	w.tearDownInteractionsOf(h)
	obj.query = qt
	obj.stamp = w.timestamp + 1
	ids, err := w.interactions.NeighborIDs(vertexID(h))
	if err != nil {
		return nil
	}
	for _, otherID := range ids {
		other, perr := strconv.ParseUint(otherID, 10, 64)
		if perr != nil {
			continue
		}
		w.narrow.handleInteraction(h, Handle(other), true, w.lookup, &w.contactEvents, &w.proximityEvents)
	}
	return nil
}

// tearDownInteractionsOf emits the removal-equivalent events for every pair
// currently naming h and erases their narrow-phase entries, without
// touching the broad phase's own current-set bookkeeping (the broad phase
// still believes the loose volumes overlap; only the narrow-phase state is
// invalidated).
func (w *World) tearDownInteractionsOf(h Handle) {
	ids, err := w.interactions.NeighborIDs(vertexID(h))
	if err != nil {
		return
	}
	for _, otherID := range ids {
		other, perr := strconv.ParseUint(otherID, 10, 64)
		if perr != nil {
			continue
		}
		oh := Handle(other)
		w.emitPairTeardown(h, oh)
		w.narrow.handleRemoval(h, oh)
	}
}

// emitPairTeardown emits Stopped / a proximity-lost event for (h1,h2) if
// the pair had reached a non-trivial state, without touching the
// interaction graph — callers decide separately whether the graph edge
// should be dropped (a true removal drops it; a query-type change does
// not, since the broad phase still reports the pair as overlapping).
func (w *World) emitPairTeardown(h1, h2 Handle) {
	hadContacts, prevProximity, hadProximity := w.narrow.pairState(h1, h2)
	if hadContacts {
		w.contactEvents.push(ContactEvent{Kind: ContactStopped, H1: h1, H2: h2})
	}
	if hadProximity {
		w.proximityEvents.push(ProximityEvent{H1: h1, H2: h2, Prev: prevProximity, New: Disjoint})
	}
}

// Remove destroys each handle in hs: the broad phase's proxy is torn down
// immediately, reporting every pair it participated in, which the world
// forwards to the narrow phase's handleRemoval after emitting the
// corresponding Stopped / proximity-lost events (spec.md §4.5's remove
// operation, §8 property 5). Returns ErrDuplicateRemoval (also returned for
// a handle that was never added) without removing any of hs — unlike
// SetPosition's handle lookup, this is one of the API boundaries that
// reports caller errors instead of treating them as an internal invariant
// violation.
func (w *World) Remove(hs ...Handle) error {
	ids := make([]proxyID, 0, len(hs))
	for _, h := range hs {
		obj, ok := w.objects[h]
		if !ok {
			return ErrDuplicateRemoval
		}
		ids = append(ids, obj.proxy)
	}

	w.broad.remove(ids, func(h1, h2 Handle) {
		w.emitPairTeardown(h1, h2)
		w.narrow.handleRemoval(h1, h2)
		w.dropEdge(h1, h2)
	})

	for _, h := range hs {
		delete(w.objects, h)
		_ = w.interactions.RemoveVertex(vertexID(h))
	}
	return nil
}

func (w *World) addEdge(h1, h2 Handle) {
	key := makeHandlePairKey(h1, h2)
	if _, exists := w.edgeIDs[key]; exists {
		return
	}
	eid, err := w.interactions.AddEdge(vertexID(key.a), vertexID(key.b), 0)
	if err == nil {
		w.edgeIDs[key] = eid
	}
}

func (w *World) dropEdge(h1, h2 Handle) {
	key := makeHandlePairKey(h1, h2)
	eid, exists := w.edgeIDs[key]
	if !exists {
		return
	}
	_ = w.interactions.RemoveEdge(eid)
	delete(w.edgeIDs, key)
}

// filter implements spec.md §4.5's interaction filter: exclude self-pairs,
// apply CollisionGroups.Match in both directions, and exclude a pair that
// shares SelfGroup membership when either side disallows self-interaction.
func (w *World) filter(h1, h2 Handle) bool {
	if h1 == h2 {
		return false
	}
	o1, ok1 := w.objects[h1]
	o2, ok2 := w.objects[h2]
	if !ok1 || !ok2 {
		return false
	}
	if !o1.groups.Match(o2.groups) {
		return false
	}
	sharesSelf := o1.groups.Membership&SelfGroup != 0 && o2.groups.Membership&SelfGroup != 0
	if sharesSelf && (o1.groups.DisableSelfInteraction || o2.groups.DisableSelfInteraction) {
		return false
	}
	return true
}

func (w *World) lookup(h Handle) (*lin.T, shape.Shape, QueryType, uint64, bool) {
	obj, ok := w.objects[h]
	if !ok {
		return nil, nil, QueryType{}, 0, false
	}
	return &obj.transform, obj.shape, obj.query, obj.stamp, true
}

// Update runs the atomic orchestration of spec.md §4.5: bump the
// timestamp, drive the broad phase (which reports started/stopped pairs
// through the world's filter), forward each delta to the narrow phase,
// then let the narrow phase generate this tick's contact and proximity
// events. ContactEvents/ProximityEvents drain the queues as the caller
// reads them (spec.md §4.5's "the world clears them at the start of
// update" — here realized as clear-on-drain rather than an unconditional
// wipe inside Update itself, so that a Stopped/proximity-lost event
// Remove or SetQueryType already pushed between two Update calls is not
// silently discarded before the caller ever sees it; see DESIGN.md).
func (w *World) Update() {
	w.timestamp++

	w.broad.update(w.filter, func(h1, h2 Handle, started bool) {
		if started {
			w.addEdge(h1, h2)
		} else {
			w.dropEdge(h1, h2)
		}
		w.narrow.handleInteraction(h1, h2, started, w.lookup, &w.contactEvents, &w.proximityEvents)
	})

	w.narrow.update(w.lookup, w.timestamp, &w.contactEvents, &w.proximityEvents)
}

// ContactEvents drains the contact event queue: every event pushed since the
// previous call, by Update, Remove or SetQueryType (spec.md §6's
// contact_events()).
func (w *World) ContactEvents() []ContactEvent { return w.contactEvents.drain() }

// ProximityEvents drains the proximity event queue: every event pushed since
// the previous call, by Update, Remove or SetQueryType (spec.md §6's
// proximity_events()).
func (w *World) ProximityEvents() []ProximityEvent { return w.proximityEvents.drain() }

// NumInterferences returns the broad phase's current overlap-set size
// (spec.md §4.2's num_interferences()).
func (w *World) NumInterferences() int { return w.broad.numInterferences() }

// ContactPair names one pair currently tracked by the narrow phase with a
// live contact algorithm, for World.ContactPairs to yield.
type ContactPair struct {
	H1, H2 Handle
	Algo   ContactAlgorithm
}

// ContactPairs returns every pair with a live contact algorithm instance,
// in the narrow phase's insertion order (spec.md §6's contact_pairs()).
func (w *World) ContactPairs() []ContactPair {
	var out []ContactPair
	w.narrow.contactAlgos.each(func(k handlePairKey, v ContactAlgorithm) {
		out = append(out, ContactPair{H1: k.a, H2: k.b, Algo: v})
	})
	return out
}

// ProximityPair names one pair currently tracked by the narrow phase with a
// live proximity algorithm, for World.ProximityPairs to yield.
type ProximityPair struct {
	H1, H2 Handle
	Algo   ProximityAlgorithm
}

// ProximityPairs returns every pair with a live proximity algorithm
// instance, in the narrow phase's insertion order (spec.md §6's
// proximity_pairs()).
func (w *World) ProximityPairs() []ProximityPair {
	var out []ProximityPair
	w.narrow.proximityAlgos.each(func(k handlePairKey, v ProximityAlgorithm) {
		out = append(out, ProximityPair{H1: k.a, H2: k.b, Algo: v})
	})
	return out
}

// InterferencesWithAABB visits every live object whose loose broad-phase
// volume overlaps bv (spec.md §6's interferences_with_aabb).
func (w *World) InterferencesWithAABB(bv shape.AABB, visit func(h Handle)) {
	w.broad.queryAABB(bv, visit)
}

// InterferencesWithRay visits every live object whose loose broad-phase
// volume the ray (origin, dir) enters before tmax (spec.md §6's
// interferences_with_ray).
func (w *World) InterferencesWithRay(origin, dir lin.V3, tmax float64, visit func(h Handle)) {
	w.broad.queryRay(origin, dir, tmax, visit)
}

// InterferencesWithPoint visits every live object whose loose broad-phase
// volume contains p (spec.md §6's interferences_with_point).
func (w *World) InterferencesWithPoint(p lin.V3, visit func(h Handle)) {
	w.broad.queryPoint(p, visit)
}
