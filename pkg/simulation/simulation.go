// Package simulation integrates node positions under a set of forces.
//
// The engine follows d3-force: a single energy scalar (alpha) decays toward a
// target, every Step applies the forces scaled by alpha and then integrates
// velocities into positions. Once alpha falls below AlphaMin the simulation
// stops being Active until Restart is called.
package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/ritzau/litgraph/pkg/force"
	"github.com/ritzau/litgraph/pkg/graph"
	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
)

// Defaults match d3-force
const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4

	initialRadius = 10.0
)

// DefaultAlphaDecay brings alpha from 1 to DefaultAlphaMin in 300 ticks
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Options tunes a simulation. Zero values select the defaults.
type Options struct {
	// OriginX and OriginY are the center of the initial placement spiral
	OriginX float64
	OriginY float64

	AlphaMin      float64
	AlphaDecay    float64
	VelocityDecay float64
}

// Tick describes one completed step
type Tick struct {
	N     int
	Alpha float64
}

// TickFunc is called after every step
type TickFunc func(Tick)

// Simulation owns the layout state of a graph
type Simulation struct {
	graph     *model.Graph
	links     []model.ResolvedLink
	linkGraph *graph.LinkGraph
	forces    force.Set
	issues    []error

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64
	running       bool
	ticks         int

	listeners    map[int]TickFunc
	nextListener int
}

// New resolves the links of g, places unpositioned nodes and installs forces.
// Links that reference unknown nodes are dropped and reported by Issues.
func New(g *model.Graph, forces force.Set, opts Options) (*Simulation, error) {
	if g == nil || len(g.Nodes) == 0 {
		return nil, model.ErrNoNodes
	}

	s := &Simulation{
		graph:         g,
		forces:        make(force.Set, len(forces)),
		alpha:         1,
		alphaMin:      orDefault(opts.AlphaMin, DefaultAlphaMin),
		alphaDecay:    orDefault(opts.AlphaDecay, DefaultAlphaDecay),
		velocityDecay: orDefault(opts.VelocityDecay, DefaultVelocityDecay),
		running:       true,
		listeners:     make(map[int]TickFunc),
	}

	links, err := g.ResolveLinks()
	if err != nil {
		s.issues = splitErrors(err)
		for _, issue := range s.issues {
			logging.Warn("Dropping link", "error", issue)
		}
	}
	s.links = links
	s.linkGraph = graph.NewLinkGraph(len(g.Nodes), links)

	s.place(opts.OriginX, opts.OriginY)

	for name, f := range forces {
		if f == nil {
			continue
		}
		f.Init(g.Nodes, s.links)
		s.forces[name] = f
	}

	logging.Debug("Simulation created",
		"nodes", len(g.Nodes),
		"links", len(s.links),
		"issues", len(s.issues),
		"forces", fmt.Sprint(s.forces.Names()))

	return s, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// place puts nodes without a position on a phyllotaxis spiral around the origin
func (s *Simulation) place(originX, originY float64) {
	for i := range s.graph.Nodes {
		n := &s.graph.Nodes[i]
		if n.Fixed() {
			n.X, n.Y = *n.FX, *n.FY
		} else if !n.HasPosition() {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			n.X = originX + radius*math.Cos(angle)
			n.Y = originY + radius*math.Sin(angle)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

// Step advances the simulation by one tick and notifies listeners. It runs
// regardless of Active; schedulers use Active to decide whether to call it.
func (s *Simulation) Step() Tick {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, name := range s.forces.Names() {
		s.forces[name].Apply(s.graph.Nodes, s.alpha)
	}

	keep := 1 - s.velocityDecay
	for i := range s.graph.Nodes {
		n := &s.graph.Nodes[i]
		if n.FX != nil {
			n.X, n.VX = *n.FX, 0
		} else {
			n.VX *= keep
			n.X += n.VX
		}
		if n.FY != nil {
			n.Y, n.VY = *n.FY, 0
		} else {
			n.VY *= keep
			n.Y += n.VY
		}
	}

	s.ticks++
	if s.alpha < s.alphaMin {
		s.running = false
	}

	tick := Tick{N: s.ticks, Alpha: s.alpha}
	for _, id := range s.listenerIDs() {
		if fn, ok := s.listeners[id]; ok {
			fn(tick)
		}
	}
	return tick
}

// Settle steps until the simulation is no longer active or max steps ran and
// returns the number of steps taken
func (s *Simulation) Settle(max int) int {
	steps := 0
	for s.Active() && steps < max {
		s.Step()
		steps++
	}
	return steps
}

// Active reports whether the simulation still wants to be stepped
func (s *Simulation) Active() bool {
	return s.running
}

// Restart makes the simulation active again without touching alpha
func (s *Simulation) Restart() {
	s.running = true
}

// Stop makes the simulation inactive until the next Restart
func (s *Simulation) Stop() {
	s.running = false
}

func (s *Simulation) Alpha() float64 { return s.alpha }

func (s *Simulation) SetAlpha(alpha float64) { s.alpha = alpha }

func (s *Simulation) AlphaMin() float64 { return s.alphaMin }

func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

func (s *Simulation) SetAlphaTarget(target float64) { s.alphaTarget = target }

// Force returns the named force
func (s *Simulation) Force(name string) (force.Force, bool) {
	f, ok := s.forces[name]
	return f, ok
}

// SetForce installs f under name, replacing any previous force of that name.
// A nil force removes the entry.
func (s *Simulation) SetForce(name string, f force.Force) {
	if f == nil {
		delete(s.forces, name)
		return
	}
	f.Init(s.graph.Nodes, s.links)
	s.forces[name] = f
}

// ForceNames returns the installed forces in application order
func (s *Simulation) ForceNames() []string {
	return s.forces.Names()
}

// OnTick registers fn to be called after every step. The returned function
// unregisters it.
func (s *Simulation) OnTick(fn TickFunc) func() {
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		delete(s.listeners, id)
	}
}

// Listeners returns the number of registered tick listeners
func (s *Simulation) Listeners() int {
	return len(s.listeners)
}

func (s *Simulation) listenerIDs() []int {
	ids := make([]int, 0, len(s.listeners))
	for id := 0; id < s.nextListener; id++ {
		if _, ok := s.listeners[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Graph returns the graph whose nodes the simulation moves
func (s *Simulation) Graph() *model.Graph {
	return s.graph
}

// Nodes returns the node slice. Callers must not retain it across sessions.
func (s *Simulation) Nodes() []model.Node {
	return s.graph.Nodes
}

// Links returns the resolved links
func (s *Simulation) Links() []model.ResolvedLink {
	return s.links
}

// LinkGraph returns the adjacency index of the resolved links
func (s *Simulation) LinkGraph() *graph.LinkGraph {
	return s.linkGraph
}

// Issues returns the data contract problems found while building the
// simulation
func (s *Simulation) Issues() []error {
	return s.issues
}

// Err returns the issues joined into one error, or nil
func (s *Simulation) Err() error {
	return errors.Join(s.issues...)
}

// Ticks returns the number of steps taken so far
func (s *Simulation) Ticks() int {
	return s.ticks
}
