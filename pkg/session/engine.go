package session

import (
	"fmt"
	"slices"

	"github.com/ritzau/litgraph/pkg/force"
	"github.com/ritzau/litgraph/pkg/interaction"
	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/simulation"
	"github.com/ritzau/litgraph/pkg/window"
)

// Engine is the layout core of one session: the simulation, the interaction
// controller and the window bus they share. It has no scheduling of its own.
type Engine struct {
	Sim        *simulation.Simulation
	Controller *interaction.Controller
	Bus        *window.Bus

	stopClamp func()
}

// NewEngine builds an engine for a copy of data. The catalog data passed in
// is never mutated.
func NewEngine(data model.GraphData, theme model.ThemeConfig, prefs model.Preferences, width, height float64) (*Engine, error) {
	g, err := model.NewGraph(model.GraphData{
		Nodes: slices.Clone(data.Nodes),
		Links: slices.Clone(data.Links),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	if missing := theme.MissingThemes(g.Nodes); len(missing) > 0 {
		logging.Warn("Themes without configured colors", "themes", fmt.Sprint(missing))
	}

	sim, err := simulation.New(g, force.Configure(prefs.Arrangement, width, height), simulation.Options{
		OriginX: width / 2,
		OriginY: height / 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}

	bus := window.NewBus()
	ctrl, err := interaction.New(sim, prefs, theme, bus, width, height)
	if err != nil {
		return nil, err
	}

	e := &Engine{Sim: sim, Controller: ctrl, Bus: bus}
	e.stopClamp = sim.OnTick(func(simulation.Tick) {
		ctrl.Constrain()
	})
	// The first frame is published before any tick
	ctrl.Constrain()
	return e, nil
}

// Settle steps the engine without a scheduler until it is inactive or max
// steps ran, then fits the view. It returns the number of steps taken.
func (e *Engine) Settle(max int) int {
	steps := e.Sim.Settle(max)
	e.Controller.AutoFit()
	return steps
}

// Close releases the engine's tick listener and window subscriptions
func (e *Engine) Close() {
	if e.stopClamp != nil {
		e.stopClamp()
		e.stopClamp = nil
	}
	e.Controller.Close()
}
