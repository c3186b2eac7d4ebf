// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// Handle is an opaque, stable identity for a collision object. Handles are
// unique for the lifetime of the world that issued them and are never
// reused while the object they name is alive (spec.md §3's Collision
// object invariant). Modeled on vu/physics/body.go's bid/bodyUUID scheme,
// generalized from a package-level counter to a per-world one so that
// multiple independent worlds don't fight over the same id space.
type Handle uint64

// QueryKind selects whether an object participates in contact generation
// or proximity tracking (spec.md §3). A pair may only generate contacts if
// both endpoints request Contacts, and may only generate proximity events
// if at least one endpoint requests Proximity (spec.md §4.4).
type QueryKind uint8

const (
	ContactsQuery QueryKind = iota
	ProximityQuery
)

// QueryType is the per-object query configuration. Exactly one of
// (Prediction, AngularPrediction) or Margin is meaningful, selected by
// Kind; construct with Contacts or Proximity rather than populating this
// directly.
type QueryType struct {
	Kind QueryKind

	// Prediction is the contact query's linear prediction distance:
	// contacts are generated within this gap even before shapes
	// interpenetrate (spec.md's Prediction glossary entry). The built-in
	// ball/ball algorithm honours it; the GJK-based convex algorithm
	// ignores it and reports only interpenetration.
	Prediction float64
	// AngularPrediction extends Prediction for rotational sweep. The
	// narrow phase adds it to Prediction, for both endpoints, when it
	// computes a pair's prediction distance; no algorithm reads it
	// separately.
	AngularPrediction float64

	// Margin is the proximity query's distance band: WithinMargin
	// starts once the gap between shapes closes to Margin (spec.md
	// §4.4, combined query limit).
	Margin float64
}

// Contacts builds a QueryType that asks the pipeline to generate contact
// manifolds for this object, predicting contacts within the given linear
// and angular distances.
func Contacts(prediction, angularPrediction float64) QueryType {
	return QueryType{Kind: ContactsQuery, Prediction: prediction, AngularPrediction: angularPrediction}
}

// Proximity builds a QueryType that asks the pipeline to track the
// three-valued proximity relation for this object within the given margin.
func Proximity(margin float64) QueryType {
	return QueryType{Kind: ProximityQuery, Margin: margin}
}

// object is the world's internal record for a collision object (spec.md
// §3). Exported access goes through Handle-keyed World methods; nothing
// outside this package holds an *object directly, matching the "exclusive
// access while borrowed for mutation" requirement in spec.md §4.5.
type object struct {
	handle    Handle
	transform lin.T
	shape     shape.Shape
	groups    CollisionGroups
	query     QueryType
	userData  any
	stamp     uint64 // last-modification timestamp (spec.md §3)
	proxy     proxyID
}
