// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// proxyID indexes a live entry in broadPhase.proxies. It is internal to the
// package (the world keeps one per object and the dbvt stores it as leaf
// payload); the exported API only ever exposes Handles.
type proxyID int32

// proxyRecord is the broad phase's per-proxy bookkeeping: its loose volume,
// its dbvt leaf, and the handle it stands in for (spec.md §3's "Broad-phase
// proxy"). moved is reset every update and drives which proxies re-query
// the tree for new overlaps (spec.md §4.2).
type proxyRecord struct {
	handle Handle
	loose  shape.AABB
	leaf   nodeID
	alive  bool
	inTree bool
	moved  bool
}

// pendingCreate queues a not-yet-inserted proxy's first tight volume.
type pendingCreate struct {
	id proxyID
	bv shape.AABB
}

// pairKey canonically identifies an unordered proxy pair: a is always the
// smaller of the two ids, so the same pair always hashes and compares
// equal regardless of discovery order.
type pairKey struct{ a, b proxyID }

func makePairKey(x, y proxyID) pairKey {
	if x < y {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

// pairSet is an insertion-ordered set of pairKeys. Plain map iteration in Go
// is randomized per-run; spec.md §5 demands bit-identical event sequences
// across runs given the same inputs, so membership and iteration order are
// tracked separately, mirroring the order-preserving eventQueue in events.go.
type pairSet struct {
	members map[pairKey]bool
	order   []pairKey
}

func newPairSet() *pairSet { return &pairSet{members: map[pairKey]bool{}} }

func (s *pairSet) has(k pairKey) bool { return s.members[k] }

// add inserts k if absent and reports whether it was newly added.
func (s *pairSet) add(k pairKey) bool {
	if s.members[k] {
		return false
	}
	s.members[k] = true
	s.order = append(s.order, k)
	return true
}

// delete removes k, rebuilding order. Only used by proxy removal, which is
// not performance-sensitive the way per-frame update is.
func (s *pairSet) delete(k pairKey) {
	if !s.members[k] {
		return
	}
	delete(s.members, k)
	kept := s.order[:0]
	for _, e := range s.order {
		if e != k {
			kept = append(kept, e)
		}
	}
	s.order = kept
}

func (s *pairSet) size() int { return len(s.members) }

// broadPhase is the proxy table plus dbvt of spec.md §4.2: it tracks which
// pairs of loose volumes currently overlap and reports the delta (started,
// stopped) each time update runs. It knows nothing about shapes or narrow
// phase; its payload is just the object Handle that owns each proxy.
type broadPhase struct {
	margin  float64
	tree    *dbvt
	proxies []proxyRecord
	freeIDs []proxyID

	pendingCreate    []pendingCreate
	pendingMove      map[proxyID]shape.AABB
	pendingMoveOrder []proxyID

	current *pairSet
}

func newBroadPhase(margin float64) *broadPhase {
	return &broadPhase{
		margin:      margin,
		tree:        newDBVT(),
		pendingMove: map[proxyID]shape.AABB{},
		current:     newPairSet(),
	}
}

// createProxy allocates a proxy id for handle and queues its first tight
// volume for insertion on the next update (spec.md §4.2's pending-op queue).
func (bp *broadPhase) createProxy(handle Handle, bv shape.AABB) proxyID {
	var id proxyID
	if n := len(bp.freeIDs); n > 0 {
		id = bp.freeIDs[n-1]
		bp.freeIDs = bp.freeIDs[:n-1]
		bp.proxies[id] = proxyRecord{handle: handle, alive: true}
	} else {
		id = proxyID(len(bp.proxies))
		bp.proxies = append(bp.proxies, proxyRecord{handle: handle, alive: true})
	}
	bp.pendingCreate = append(bp.pendingCreate, pendingCreate{id: id, bv: bv})
	return id
}

// deferredSetBV queues id's new tight volume. Repeated calls for the same id
// before the next update coalesce: only the latest volume survives, and if
// id's creation itself is still pending, the pending create's volume is
// updated directly rather than queuing a separate move for a leaf that does
// not exist yet.
func (bp *broadPhase) deferredSetBV(id proxyID, bv shape.AABB) {
	for i := range bp.pendingCreate {
		if bp.pendingCreate[i].id == id {
			bp.pendingCreate[i].bv = bv
			return
		}
	}
	if _, queued := bp.pendingMove[id]; !queued {
		bp.pendingMoveOrder = append(bp.pendingMoveOrder, id)
	}
	bp.pendingMove[id] = bv
}

// remove detaches ids from the tree immediately (not deferred), invoking
// onPairGone for every current-set pair that named one of them, then frees
// the ids for reuse (spec.md §4.2's remove operation).
func (bp *broadPhase) remove(ids []proxyID, onPairGone func(h1, h2 Handle)) {
	for _, id := range ids {
		rec := &bp.proxies[id]

		kept := bp.pendingCreate[:0]
		for _, pc := range bp.pendingCreate {
			if pc.id != id {
				kept = append(kept, pc)
			}
		}
		bp.pendingCreate = kept
		delete(bp.pendingMove, id)

		if rec.inTree {
			var gone []pairKey
			for _, key := range bp.current.order {
				if key.a == id || key.b == id {
					gone = append(gone, key)
				}
			}
			for _, key := range gone {
				other := key.a
				if other == id {
					other = key.b
				}
				onPairGone(rec.handle, bp.proxies[other].handle)
				bp.current.delete(key)
			}
			bp.tree.remove(rec.leaf)
		}

		*rec = proxyRecord{}
		bp.freeIDs = append(bp.freeIDs, id)
	}
}

func (bp *broadPhase) applyPendingCreates() {
	for _, pc := range bp.pendingCreate {
		rec := &bp.proxies[pc.id]
		loose := pc.bv.Inflate(bp.margin)
		rec.leaf = bp.tree.insert(loose, pc.id)
		rec.loose = loose
		rec.inTree = true
		rec.moved = true
	}
	bp.pendingCreate = bp.pendingCreate[:0]
}

func (bp *broadPhase) applyPendingMoves() {
	for _, id := range bp.pendingMoveOrder {
		bv, queued := bp.pendingMove[id]
		if !queued {
			continue
		}
		rec := &bp.proxies[id]
		if rec.loose.Contains(bv) {
			rec.moved = false
			continue
		}
		loose := bv.Inflate(bp.margin)
		bp.tree.remove(rec.leaf)
		rec.leaf = bp.tree.insert(loose, id)
		rec.loose = loose
		rec.moved = true
	}
	bp.pendingMove = map[proxyID]shape.AABB{}
	bp.pendingMoveOrder = bp.pendingMoveOrder[:0]
}

// update runs the five-step algorithm in spec.md §4.2: apply queued
// creates and moves, re-query the tree for every proxy that moved, carry
// forward pairs whose endpoints are both untouched, and emit the delta
// (started pairs first, in tree-traversal order, then stopped pairs in the
// previous set's iteration order) before swapping the new set into place.
func (bp *broadPhase) update(filter func(h1, h2 Handle) bool, onPairEvent func(h1, h2 Handle, started bool)) {
	bp.applyPendingCreates()
	bp.applyPendingMoves()

	next := newPairSet()
	var started []pairKey

	for id := proxyID(0); id < proxyID(len(bp.proxies)); id++ {
		rec := &bp.proxies[id]
		if !rec.alive || !rec.inTree || !rec.moved {
			continue
		}
		bp.tree.visitOverlapping(rec.loose, func(other proxyID) {
			if other == id {
				return
			}
			key := makePairKey(id, other)
			if next.has(key) {
				return
			}
			h1, h2 := bp.proxies[key.a].handle, bp.proxies[key.b].handle
			if !filter(h1, h2) {
				return
			}
			wasCurrent := bp.current.has(key)
			next.add(key)
			if !wasCurrent {
				started = append(started, key)
			}
		})
	}

	for _, key := range bp.current.order {
		if next.has(key) {
			continue
		}
		if bp.proxies[key.a].moved || bp.proxies[key.b].moved {
			continue
		}
		next.add(key)
	}

	var stopped []pairKey
	for _, key := range bp.current.order {
		if !next.has(key) {
			stopped = append(stopped, key)
		}
	}

	for _, key := range started {
		onPairEvent(bp.proxies[key.a].handle, bp.proxies[key.b].handle, true)
	}
	for _, key := range stopped {
		onPairEvent(bp.proxies[key.a].handle, bp.proxies[key.b].handle, false)
	}

	bp.current = next
	for i := range bp.proxies {
		bp.proxies[i].moved = false
	}
}

func (bp *broadPhase) numInterferences() int { return bp.current.size() }

func (bp *broadPhase) queryAABB(bv shape.AABB, f func(h Handle)) {
	bp.tree.visitOverlapping(bv, func(id proxyID) { f(bp.proxies[id].handle) })
}

func (bp *broadPhase) queryRay(origin, dir lin.V3, tmax float64, f func(h Handle)) {
	bp.tree.visitRay(origin, dir, tmax, func(id proxyID) { f(bp.proxies[id].handle) })
}

func (bp *broadPhase) queryPoint(p lin.V3, f func(h Handle)) {
	bp.tree.visitPoint(p, func(id proxyID) { f(bp.proxies[id].handle) })
}
