// Copyright © 2024 Galvanized Logic Inc.

package collide

import "errors"

// Programming-contract violations (spec.md §7): a caller bug, never a
// condition the pipeline can recover from by itself. At the API boundaries
// SPEC_FULL.md's error-handling section names explicitly (World.Remove,
// World.SetQueryType, dispatcher registration) these are returned, so the
// caller cannot silently ignore them. Elsewhere they back an internal
// invariant check that can never legitimately fail outside a caller bug
// (World.SetPosition's handle lookup, the narrow phase's query-kind check)
// and are panicked instead, matching vu/physics's own split between
// recoverable dev errors and internal invariants.
var (
	ErrUnknownHandle     = errors.New("collide: unknown collision object handle")
	ErrQueryTypeMismatch = errors.New("collide: pair has mismatched or unsupported query types")
	ErrDuplicateRemoval  = errors.New("collide: handle removed more than once")
	ErrReservedShapeTag  = errors.New("collide: shape.CompoundTag is reserved for composite dispatch and cannot be registered")
)
