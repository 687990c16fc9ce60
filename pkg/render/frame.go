package render

import (
	"github.com/ritzau/litgraph/pkg/model"
)

// NodePosition is the position of one node in a frame
type NodePosition struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Fixed bool    `json:"fixed,omitempty"`
}

// LinkPosition holds the resolved endpoint positions of one link
type LinkPosition struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// Frame is the per-tick rendering payload
type Frame struct {
	Tick   int            `json:"tick"`
	Alpha  float64        `json:"alpha"`
	Active bool           `json:"active"`
	Nodes  []NodePosition `json:"nodes"`
	Links  []LinkPosition `json:"links"`
}

// NewFrame snapshots node positions and looks up link endpoints by index
func NewFrame(tick int, alpha float64, active bool, nodes []model.Node, links []model.ResolvedLink) Frame {
	f := Frame{
		Tick:   tick,
		Alpha:  alpha,
		Active: active,
		Nodes:  make([]NodePosition, len(nodes)),
		Links:  make([]LinkPosition, len(links)),
	}
	for i := range nodes {
		n := &nodes[i]
		f.Nodes[i] = NodePosition{ID: n.ID, X: n.X, Y: n.Y, Fixed: n.Fixed()}
	}
	for i, l := range links {
		s, t := &nodes[l.SourceIndex], &nodes[l.TargetIndex]
		f.Links[i] = LinkPosition{
			Source: l.Source,
			Target: l.Target,
			X1:     s.X,
			Y1:     s.Y,
			X2:     t.X,
			Y2:     t.Y,
		}
	}
	return f
}

// Bounds is an axis-aligned box in layout coordinates
type Bounds struct {
	X, Y          float64
	Width, Height float64
}

// Empty reports whether the box has no area
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// LayoutBounds returns the box enclosing every node drawn as a circle of the
// given radius
func LayoutBounds(nodes []model.Node, radius float64) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	minX, minY := nodes[0].X, nodes[0].Y
	maxX, maxY := minX, minY
	for _, n := range nodes[1:] {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		maxX = max(maxX, n.X)
		maxY = max(maxY, n.Y)
	}
	return Bounds{
		X:      minX - radius,
		Y:      minY - radius,
		Width:  maxX - minX + 2*radius,
		Height: maxY - minY + 2*radius,
	}
}
