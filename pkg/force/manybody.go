package force

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
)

// ManyBody applies a constant-strength force between every pair of nodes.
// Negative strength repels. The strength is not normalized by node count,
// so denser graphs spread out further.
type ManyBody struct {
	Strength     float64
	Theta        float64 // Barnes-Hut accuracy, 0 computes every pair
	DistanceMin2 float64 // squared distance below which the force is softened

	bodies []*body
	rand   *rand.Rand
}

// NewManyBody returns a many-body force with d3's defaults for theta and
// minimum distance
func NewManyBody(strength float64) *ManyBody {
	return &ManyBody{
		Strength:     strength,
		Theta:        0.9,
		DistanceMin2: 1,
	}
}

// body adapts a node position to barneshut.Particle2
type body struct {
	pos r2.Vec
}

func (b *body) Coord2() r2.Vec { return b.pos }
func (b *body) Mass() float64  { return 1 }

func (m *ManyBody) Init(nodes []model.Node, _ []model.ResolvedLink) {
	m.bodies = make([]*body, len(nodes))
	for i := range m.bodies {
		m.bodies[i] = &body{}
	}
	m.rand = newRand()
}

func (m *ManyBody) Apply(nodes []model.Node, alpha float64) {
	if len(nodes) < 2 {
		return
	}

	particles := make([]barneshut.Particle2, len(nodes))
	seen := make(map[r2.Vec]bool, len(nodes))
	coincident := false
	for i := range nodes {
		pos := r2.Vec{X: nodes[i].X, Y: nodes[i].Y}
		m.bodies[i].pos = pos
		particles[i] = m.bodies[i]
		if seen[pos] {
			coincident = true
		}
		seen[pos] = true
	}

	// Coincident nodes cannot be separated by the quadtree.
	if m.Theta > 0 && !coincident {
		plane, err := barneshut.NewPlane(particles)
		if err == nil {
			for i, b := range m.bodies {
				f := plane.ForceOn(b, m.Theta, m.pair)
				nodes[i].VX += f.X * alpha
				nodes[i].VY += f.Y * alpha
			}
			return
		}
		logging.Trace("barnes-hut plane unavailable, computing exact forces", "error", err)
	}

	m.applyExact(nodes, alpha)
}

// pair is the barneshut.Force2 for the many-body force. v points from the
// body toward the other mass.
func (m *ManyBody) pair(_, _ barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
	d2 := v.X*v.X + v.Y*v.Y
	if d2 == 0 {
		return r2.Vec{}
	}
	if d2 < m.DistanceMin2 {
		d2 = math.Sqrt(m.DistanceMin2 * d2)
	}
	return r2.Scale(m.Strength*m2/d2, v)
}

func (m *ManyBody) applyExact(nodes []model.Node, alpha float64) {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			x := nodes[j].X - nodes[i].X
			y := nodes[j].Y - nodes[i].Y
			if x == 0 {
				x = jiggle(m.rand)
			}
			if y == 0 {
				y = jiggle(m.rand)
			}
			f := m.pair(nil, nil, 1, 1, r2.Vec{X: x, Y: y})
			nodes[i].VX += f.X * alpha
			nodes[i].VY += f.Y * alpha
			nodes[j].VX -= f.X * alpha
			nodes[j].VY -= f.Y * alpha
		}
	}
}
