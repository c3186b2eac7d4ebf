// Copyright © 2024 Galvanized Logic Inc.

package collide

import "testing"

func TestGroupsMatchDefault(t *testing.T) {
	a, b := DefaultGroups(), DefaultGroups()
	if !a.Match(b) {
		t.Error("two default groups should match each other")
	}
}

func TestGroupsMatchRequiresBothDirections(t *testing.T) {
	a := CollisionGroups{Membership: 0x1, Whitelist: 0x2}
	b := CollisionGroups{Membership: 0x2, Whitelist: ^GroupBits(0)}
	if !a.Match(b) {
		t.Error("a whitelists b's membership and b whitelists everything: should match")
	}

	c := CollisionGroups{Membership: 0x4, Whitelist: ^GroupBits(0)}
	if a.Match(c) {
		t.Error("a's whitelist (0x2) excludes c's membership (0x4): should not match")
	}
}

func TestGroupsBlacklistOverridesWhitelist(t *testing.T) {
	a := CollisionGroups{Membership: 0x1, Whitelist: ^GroupBits(0)}
	b := CollisionGroups{Membership: 0x2, Whitelist: ^GroupBits(0), Blacklist: 0x1}
	if a.Match(b) {
		t.Error("b blacklists a's membership: should not match even though both whitelist everything")
	}
}

func TestGroupsZeroValueMatchesNothing(t *testing.T) {
	var a, b CollisionGroups
	if a.Match(b) {
		t.Error("zero-value groups belong to nothing and accept nothing: should never match")
	}
}
