// Package force implements the forces that drive the layout simulation and
// the mapping from an arrangement preference to a named set of forces.
//
// Forces follow the velocity-Verlet style used by d3-force: each force adds to
// node velocities (scaled by the simulation's alpha) and the simulation then
// integrates positions.
package force

import (
	"math/rand/v2"
	"sort"

	"github.com/ritzau/litgraph/pkg/model"
)

// Force acts on the nodes of a simulation
type Force interface {
	// Init is called once when the force is installed in a simulation
	Init(nodes []model.Node, links []model.ResolvedLink)

	// Apply adds the force's contribution for one tick
	Apply(nodes []model.Node, alpha float64)
}

// Force names used by Configure
const (
	NameCharge    = "charge"
	NameCollision = "collision"
	NameCenter    = "center"
	NameX         = "x"
	NameY         = "y"
	NameLink      = "link"
)

// order is the application order of known forces
var order = []string{NameCharge, NameCollision, NameCenter, NameX, NameY, NameLink}

// DimensionNames lists the forces whose parameters depend on the viewport
var DimensionNames = []string{NameCenter, NameX, NameY}

// Set is a named collection of forces
type Set map[string]Force

// Names returns the names in s in application order: known forces first in
// their fixed order, then any others sorted by name
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	known := make(map[string]bool, len(order))
	for _, name := range order {
		known[name] = true
		if _, ok := s[name]; ok {
			names = append(names, name)
		}
	}

	var extra []string
	for name := range s {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// jiggle returns a tiny random offset used to separate coincident nodes
func jiggle(r *rand.Rand) float64 {
	return (r.Float64() - 0.5) * 1e-6
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(0x1664525, 0x3c6ef35f))
}
