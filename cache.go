// Copyright © 2024 Galvanized Logic Inc.

package collide

import lru "github.com/hashicorp/golang-lru"

// childAlgoCache is a small generic wrapper over hashicorp/golang-lru's
// adaptive replacement cache, ported from btrfs-rec's
// lib/containers.LRUCache[K,V]. The composite dispatcher (dispatch.go) uses
// one per pair to avoid rebuilding a child's algorithm instance every tick
// when only a handful of a compound shape's children actually overlap the
// other side.
type childAlgoCache[K comparable, V any] struct {
	inner *lru.ARCCache
}

func newChildAlgoCache[K comparable, V any](size int) *childAlgoCache[K, V] {
	inner, _ := lru.NewARC(size)
	return &childAlgoCache[K, V]{inner: inner}
}

func (c *childAlgoCache[K, V]) get(key K) (V, bool) {
	v, ok := c.inner.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (c *childAlgoCache[K, V]) add(key K, value V) { c.inner.Add(key, value) }

func (c *childAlgoCache[K, V]) keys() []K {
	raw := c.inner.Keys()
	out := make([]K, len(raw))
	for i := range raw {
		out[i] = raw[i].(K)
	}
	return out
}
