// Package constraint keeps node positions inside the viewport.
package constraint

import (
	"math"

	"github.com/ritzau/litgraph/pkg/model"
)

// RadiusPadding is the distance kept between a node center and the viewport edge
const RadiusPadding = 45.0

// Clamp moves every node, pinned ones included, into
// [radius, width-radius] x [radius, height-radius]. Non-finite coordinates are
// reset to the viewport center. A viewport narrower than 2*radius collapses
// onto its center line. Clamp is idempotent.
func Clamp(nodes []model.Node, width, height, radius float64) {
	for i := range nodes {
		n := &nodes[i]
		n.X = clampAxis(n.X, width, radius)
		n.Y = clampAxis(n.Y, height, radius)
	}
}

// Point clamps a single coordinate pair the same way Clamp does
func Point(x, y, width, height, radius float64) (float64, float64) {
	return clampAxis(x, width, radius), clampAxis(y, height, radius)
}

func clampAxis(v, size, radius float64) float64 {
	lo, hi := radius, size-radius
	if lo > hi {
		return size / 2
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return size / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

// Within reports whether every node lies inside the clamped region
func Within(nodes []model.Node, width, height, radius float64) bool {
	for _, n := range nodes {
		if clampAxis(n.X, width, radius) != n.X || clampAxis(n.Y, height, radius) != n.Y {
			return false
		}
	}
	return true
}
