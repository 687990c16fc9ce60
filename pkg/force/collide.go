package force

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/ritzau/litgraph/pkg/model"
)

// Collide keeps nodes at least 2*Radius apart by pushing overlapping pairs
// away from each other. Positions are anticipated with the current velocity.
//
// Candidate pairs come from a k-d tree over the anticipated positions, built
// once per iteration.
type Collide struct {
	Radius     float64
	Strength   float64
	Iterations int

	rand   *rand.Rand
	points collidePoints
	near   []int
}

// NewCollide returns a collision force with full strength and one iteration
func NewCollide(radius float64) *Collide {
	return &Collide{Radius: radius, Strength: 1, Iterations: 1}
}

func (c *Collide) Init(nodes []model.Node, _ []model.ResolvedLink) {
	c.rand = newRand()
	c.points = make(collidePoints, len(nodes))
}

func (c *Collide) Apply(nodes []model.Node, _ float64) {
	if len(c.points) != len(nodes) {
		c.points = make(collidePoints, len(nodes))
	}
	r := 2 * c.Radius
	r2 := r * r

	for k := 0; k < c.Iterations; k++ {
		for i := range nodes {
			c.points[i] = collidePoint{x: nodes[i].X + nodes[i].VX, y: nodes[i].Y + nodes[i].VY, index: i}
		}
		tree := kdtree.New(c.points, false)

		for i := range nodes {
			xi := nodes[i].X + nodes[i].VX
			yi := nodes[i].Y + nodes[i].VY

			keep := kdtree.NewDistKeeper(r2)
			tree.NearestSet(keep, collidePoint{x: xi, y: yi, index: i})
			c.near = c.near[:0]
			for _, found := range keep.Heap {
				if p, ok := found.Comparable.(collidePoint); ok && p.index > i {
					c.near = append(c.near, p.index)
				}
			}
			slices.Sort(c.near)

			for _, j := range c.near {
				x := xi - (nodes[j].X + nodes[j].VX)
				y := yi - (nodes[j].Y + nodes[j].VY)
				l := x*x + y*y
				if l >= r2 {
					continue
				}
				if x == 0 {
					x = jiggle(c.rand)
					l += x * x
				}
				if y == 0 {
					y = jiggle(c.rand)
					l += y * y
				}
				l = math.Sqrt(l)
				l = (r - l) / l * c.Strength
				x *= l
				y *= l
				// Equal radii split the correction evenly.
				nodes[i].VX += x * 0.5
				nodes[i].VY += y * 0.5
				nodes[j].VX -= x * 0.5
				nodes[j].VY -= y * 0.5
			}
		}
	}
}

// collidePoint is an anticipated node position in the collision tree
type collidePoint struct {
	x, y  float64
	index int
}

func (p collidePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(collidePoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p collidePoint) Dims() int { return 2 }

// Distance returns the squared distance to c
func (p collidePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(collidePoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type collidePoints []collidePoint

func (p collidePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p collidePoints) Len() int                              { return len(p) }
func (p collidePoints) Pivot(d kdtree.Dim) int                { return collidePlane{points: p, dim: d}.Pivot() }
func (p collidePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// collidePlane orders points along one dimension while the tree is built
type collidePlane struct {
	points collidePoints
	dim    kdtree.Dim
}

func (p collidePlane) Len() int { return len(p.points) }
func (p collidePlane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.dim) < 0
}
func (p collidePlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p collidePlane) Pivot() int    { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p collidePlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
