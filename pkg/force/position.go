package force

import (
	"github.com/ritzau/litgraph/pkg/model"
)

// Center shifts all nodes so that their mean position moves toward (X, Y).
// It moves positions directly and does not touch velocities.
type Center struct {
	X, Y     float64
	Strength float64
}

func (c *Center) Init(_ []model.Node, _ []model.ResolvedLink) {}

func (c *Center) Apply(nodes []model.Node, _ float64) {
	if len(nodes) == 0 {
		return
	}

	var sx, sy float64
	for i := range nodes {
		sx += nodes[i].X
		sy += nodes[i].Y
	}
	n := float64(len(nodes))
	sx = (sx/n - c.X) * c.Strength
	sy = (sy/n - c.Y) * c.Strength

	for i := range nodes {
		nodes[i].X -= sx
		nodes[i].Y -= sy
	}
}

// Axis selects the coordinate a Position force acts on
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Position pulls every node toward a per-node target coordinate on one axis
type Position struct {
	Axis     Axis
	Target   func(*model.Node) float64
	Strength float64

	targets []float64
}

// NewPositionX returns a Position force on the X axis
func NewPositionX(target func(*model.Node) float64, strength float64) *Position {
	return &Position{Axis: AxisX, Target: target, Strength: strength}
}

// NewPositionY returns a Position force on the Y axis
func NewPositionY(target func(*model.Node) float64, strength float64) *Position {
	return &Position{Axis: AxisY, Target: target, Strength: strength}
}

// Constant returns a target function that ignores the node
func Constant(v float64) func(*model.Node) float64 {
	return func(*model.Node) float64 { return v }
}

func (p *Position) Init(nodes []model.Node, _ []model.ResolvedLink) {
	p.targets = make([]float64, len(nodes))
	for i := range nodes {
		p.targets[i] = p.Target(&nodes[i])
	}
}

func (p *Position) Apply(nodes []model.Node, alpha float64) {
	k := p.Strength * alpha
	for i := range nodes {
		if p.Axis == AxisX {
			nodes[i].VX += (p.targets[i] - nodes[i].X) * k
		} else {
			nodes[i].VY += (p.targets[i] - nodes[i].Y) * k
		}
	}
}

// Targets returns the target coordinate of each node, in node order. It is
// only populated after Init.
func (p *Position) Targets() []float64 {
	return p.targets
}
