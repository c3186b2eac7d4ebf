// Copyright © 2024 Galvanized Logic Inc.

// Package collidetest loads the YAML scenario fixtures used to exercise a
// collide.World end to end, and builds a live World from one. It is the
// structured-input counterpart to the hand-built objects the root package's
// own tests construct directly, letting a scenario's geometry and filter
// configuration live in one declarative file instead of Go literals.
package collidetest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gazed/collide"
	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// Vec3 is a YAML-friendly stand-in for lin.V3, which belongs to vu's math
// package and cannot be given yaml handling from here.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) toLin() lin.V3 { return lin.V3{X: v.X, Y: v.Y, Z: v.Z} }

// ShapeSpec names a shape.Shape to construct. Only the fields relevant to
// Type are read: Radius for "ball", HalfExtents for "box".
type ShapeSpec struct {
	Type        string `yaml:"type"`
	Radius      float64 `yaml:"radius,omitempty"`
	HalfExtents Vec3    `yaml:"halfExtents,omitempty"`
}

func (s ShapeSpec) build() (shape.Shape, error) {
	switch s.Type {
	case "ball":
		return shape.NewBall(s.Radius), nil
	case "box":
		return shape.NewBox(s.HalfExtents.X, s.HalfExtents.Y, s.HalfExtents.Z), nil
	default:
		return nil, fmt.Errorf("collidetest: unknown shape type %q", s.Type)
	}
}

// GroupsSpec mirrors collide.CollisionGroups. A zero value (no membership,
// no whitelist bits set) is treated as "accept the defaults" rather than
// "belongs to nothing," since a scenario author who didn't write a groups
// block almost always means the common case.
type GroupsSpec struct {
	Membership             uint32 `yaml:"membership"`
	Whitelist               uint32 `yaml:"whitelist"`
	Blacklist               uint32 `yaml:"blacklist"`
	DisableSelfInteraction  bool   `yaml:"disableSelfInteraction"`
}

func (g GroupsSpec) build() collide.CollisionGroups {
	if g.Membership == 0 && g.Whitelist == 0 {
		return collide.DefaultGroups()
	}
	return collide.CollisionGroups{
		Membership:             collide.GroupBits(g.Membership),
		Whitelist:               collide.GroupBits(g.Whitelist),
		Blacklist:               collide.GroupBits(g.Blacklist),
		DisableSelfInteraction: g.DisableSelfInteraction,
	}
}

// QuerySpec mirrors collide.QueryType. Kind is "contacts" (the default) or
// "proximity".
type QuerySpec struct {
	Kind              string  `yaml:"kind"`
	Prediction        float64 `yaml:"prediction"`
	AngularPrediction float64 `yaml:"angularPrediction"`
	Margin            float64 `yaml:"margin"`
}

func (q QuerySpec) build() collide.QueryType {
	if q.Kind == "proximity" {
		return collide.Proximity(q.Margin)
	}
	return collide.Contacts(q.Prediction, q.AngularPrediction)
}

// ObjectSpec is one scenario object: its initial position, shape, groups,
// and query type. Objects are addressed by their index in Scenario.Objects
// from every StepSpec.
type ObjectSpec struct {
	Position Vec3      `yaml:"position"`
	Shape    ShapeSpec `yaml:"shape"`
	Groups   GroupsSpec `yaml:"groups"`
	Query    QuerySpec `yaml:"query"`
}

// MoveSpec repositions an object before the next Update.
type MoveSpec struct {
	Object int  `yaml:"object"`
	To     Vec3 `yaml:"to"`
}

// StepSpec is one entry of a scenario's timeline: any combination of moves
// and removals, optionally followed by an Update, optionally checked
// against an expected interference count. Checks beyond NumInterferences
// are left to the test driving the scenario, which has direct access to
// the World and can inspect ContactEvents/ProximityEvents itself.
type StepSpec struct {
	Moves               []MoveSpec `yaml:"moves,omitempty"`
	Remove              []int      `yaml:"remove,omitempty"`
	Update              bool       `yaml:"update,omitempty"`
	ExpectInterferences *int       `yaml:"expectInterferences,omitempty"`
}

// Scenario is a complete, self-contained fixture: a broad-phase looseness
// margin, a set of objects, and a timeline of steps to run against them.
type Scenario struct {
	Name      string       `yaml:"name"`
	Looseness float64      `yaml:"looseness"`
	Objects   []ObjectSpec `yaml:"objects"`
	Steps     []StepSpec   `yaml:"steps"`
}

// LoadScenario parses a YAML document into a Scenario.
func LoadScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("collidetest: %w", err)
	}
	return &s, nil
}

// Build materializes a fresh collide.World from the scenario's objects,
// returning the world and a slice of handles index-aligned with s.Objects.
func (s *Scenario) Build() (*collide.World, []collide.Handle, error) {
	w := collide.New(s.Looseness)
	handles := make([]collide.Handle, len(s.Objects))
	for i, o := range s.Objects {
		sh, err := o.Shape.build()
		if err != nil {
			return nil, nil, fmt.Errorf("collidetest: object %d: %w", i, err)
		}
		pos := lin.NewT().SetI()
		pos.SetLoc(o.Position.X, o.Position.Y, o.Position.Z)
		handles[i] = w.Add(*pos, sh, o.Groups.build(), o.Query.build(), nil)
	}
	return w, handles, nil
}

// StepResult reports what happened after running one StepSpec, so a test
// can assert on more than ExpectInterferences if it wants to.
type StepResult struct {
	ContactEvents   []collide.ContactEvent
	ProximityEvents []collide.ProximityEvent
	Interferences   int
}

// Run drives every step in order against w, using handles to resolve each
// StepSpec's object indices, and returns one StepResult per step that
// called Update (steps that only move or remove objects without updating
// produce no result, matching the world's own "nothing happens until
// Update" semantics).
func (s *Scenario) Run(w *collide.World, handles []collide.Handle) ([]StepResult, error) {
	var results []StepResult
	for i, step := range s.Steps {
		for _, mv := range step.Moves {
			if mv.Object < 0 || mv.Object >= len(handles) {
				return nil, fmt.Errorf("collidetest: step %d: move references unknown object %d", i, mv.Object)
			}
			pos, _, _, _, _, ok := w.Object(handles[mv.Object])
			if !ok {
				continue
			}
			pos.SetLoc(mv.To.X, mv.To.Y, mv.To.Z)
			w.SetPosition(handles[mv.Object], pos)
		}
		for _, idx := range step.Remove {
			if idx < 0 || idx >= len(handles) {
				return nil, fmt.Errorf("collidetest: step %d: remove references unknown object %d", i, idx)
			}
			if err := w.Remove(handles[idx]); err != nil {
				return nil, fmt.Errorf("collidetest: step %d: %w", i, err)
			}
		}
		if !step.Update {
			continue
		}
		w.Update()
		res := StepResult{
			ContactEvents:   w.ContactEvents(),
			ProximityEvents: w.ProximityEvents(),
			Interferences:   w.NumInterferences(),
		}
		if step.ExpectInterferences != nil && res.Interferences != *step.ExpectInterferences {
			return nil, fmt.Errorf("collidetest: step %d: num_interferences = %d, want %d", i, res.Interferences, *step.ExpectInterferences)
		}
		results = append(results, res)
	}
	return results, nil
}
