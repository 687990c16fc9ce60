package force

import (
	"math"
	"math/rand/v2"

	"github.com/ritzau/litgraph/pkg/model"
)

// Link pulls linked nodes toward Distance apart. The correction is split
// between the endpoints by degree so that hubs move less.
type Link struct {
	Distance   float64
	Strength   float64
	Iterations int

	links []model.ResolvedLink
	bias  []float64
	rand  *rand.Rand
}

// NewLink returns a link force with one iteration
func NewLink(distance, strength float64) *Link {
	return &Link{Distance: distance, Strength: strength, Iterations: 1}
}

func (f *Link) Init(nodes []model.Node, links []model.ResolvedLink) {
	f.links = links
	f.rand = newRand()

	count := make([]int, len(nodes))
	for _, l := range links {
		count[l.SourceIndex]++
		count[l.TargetIndex]++
	}

	f.bias = make([]float64, len(links))
	for i, l := range links {
		s, t := count[l.SourceIndex], count[l.TargetIndex]
		f.bias[i] = float64(s) / float64(s+t)
	}
}

func (f *Link) Apply(nodes []model.Node, alpha float64) {
	for k := 0; k < f.Iterations; k++ {
		for i, l := range f.links {
			if l.SourceIndex == l.TargetIndex {
				continue
			}
			source := &nodes[l.SourceIndex]
			target := &nodes[l.TargetIndex]

			x := target.X + target.VX - source.X - source.VX
			y := target.Y + target.VY - source.Y - source.VY
			if x == 0 {
				x = jiggle(f.rand)
			}
			if y == 0 {
				y = jiggle(f.rand)
			}
			d := math.Sqrt(x*x + y*y)
			d = (d - f.Distance) / d * alpha * f.Strength
			x *= d
			y *= d

			b := f.bias[i]
			target.VX -= x * b
			target.VY -= y * b
			source.VX += x * (1 - b)
			source.VY += y * (1 - b)
		}
	}
}

// Links returns the links the force acts on
func (f *Link) Links() []model.ResolvedLink {
	return f.links
}
