// Copyright © 2024 Galvanized Logic Inc.

package collide

// GroupBits is a fixed-width bitmask used for interaction-group membership
// and filtering (spec.md §4.6). 32 bits matches the "typically 32" default
// the spec calls out.
type GroupBits uint32

// SelfGroup is the distinguished bit objects use to opt in or out of
// interacting with other members of their own group (spec.md §4.5's
// interaction filter, third bullet).
const SelfGroup GroupBits = 1 << 31

// CollisionGroups holds the three bit fields spec.md §4.6 specifies:
// membership, whitelist, and blacklist. The zero value means "belongs to
// nothing and accepts nothing," which is almost never what a caller wants
// — use DefaultGroups for the common "belongs to everything, filters
// nothing" case.
type CollisionGroups struct {
	Membership GroupBits
	Whitelist  GroupBits
	Blacklist  GroupBits

	// DisableSelfInteraction, when true, excludes pairs where both
	// endpoints share SelfGroup membership, per the third filter bullet
	// in spec.md §4.5.
	DisableSelfInteraction bool
}

// DefaultGroups returns groups that belong to every bit and accept every
// bit, so two freshly constructed objects interact unless the caller
// narrows them.
func DefaultGroups() CollisionGroups {
	return CollisionGroups{Membership: ^GroupBits(0), Whitelist: ^GroupBits(0)}
}

// Match implements spec.md §4.6's pair-match rule: for each direction,
// (a.membership ∧ b.whitelist) ≠ 0 ∧ (a.membership ∧ b.blacklist) = 0.
func (a CollisionGroups) Match(b CollisionGroups) bool {
	aToB := a.Membership&b.Whitelist != 0 && a.Membership&b.Blacklist == 0
	bToA := b.Membership&a.Whitelist != 0 && b.Membership&a.Blacklist == 0
	return aToB && bToA
}
