// Package interaction turns pointer and window events into changes to the
// simulation inputs (fixed overrides, alpha, forces) or to the view and
// highlight state. Highlighting never moves nodes.
package interaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/ritzau/litgraph/pkg/constraint"
	"github.com/ritzau/litgraph/pkg/force"
	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/render"
	"github.com/ritzau/litgraph/pkg/simulation"
	"github.com/ritzau/litgraph/pkg/window"
)

// Interaction constants
const (
	DragAlphaTarget   = 0.3
	ResizeAlpha       = 0.3
	ZoomInFactor      = 1.5
	ZoomOutFactor     = 0.75
	MinScale          = 0.2
	MaxScale          = 4.0
	FitFraction       = 0.8
	ConstraintPadding = constraint.RadiusPadding
)

// ErrInvalidSize is returned for a viewport without area
var ErrInvalidSize = errors.New("invalid viewport size")

// Change flags what an operation modified
type Change uint8

const (
	ChangeHighlight Change = 1 << iota
	ChangeView
	ChangeLayout
)

// Has reports whether c includes flag
func (c Change) Has(flag Change) bool {
	return c&flag != 0
}

// Controller owns the interaction state of one session. It is not safe for
// concurrent use; the session loop serializes all calls.
type Controller struct {
	sim        *simulation.Simulation
	prefs      model.Preferences
	theme      model.ThemeConfig
	appearance render.Appearance
	bus        *window.Bus

	width, height float64

	selected  int
	highlight render.Highlight
	outside   *window.Subscription

	dragging int

	transform render.Transform
	fitted    bool

	changed Change
}

// New returns a controller for sim in a width x height viewport. Outside
// click subscriptions are taken on bus while a node is selected.
func New(sim *simulation.Simulation, prefs model.Preferences, theme model.ThemeConfig, bus *window.Bus, width, height float64) (*Controller, error) {
	if !validSize(width, height) {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidSize, width, height)
	}
	c := &Controller{
		sim:        sim,
		prefs:      prefs,
		theme:      theme,
		appearance: render.AppearanceFor(prefs.Style),
		bus:        bus,
		width:      width,
		height:     height,
		selected:   -1,
		dragging:   -1,
		transform:  render.Identity,
	}
	c.highlight = render.DefaultHighlight(sim.Nodes(), sim.Links())
	return c, nil
}

func validSize(width, height float64) bool {
	return width > 0 && height > 0 && !math.IsInf(width, 0) && !math.IsInf(height, 0)
}

func (c *Controller) index(id string) (int, error) {
	i, ok := c.sim.Graph().Index(id)
	if !ok {
		return -1, fmt.Errorf("%w: %q", model.ErrUnknownNode, id)
	}
	return i, nil
}

// Select makes id the only selected node and highlights its neighborhood.
// Reselecting the current node only marks the highlight for re-render.
func (c *Controller) Select(id string) error {
	i, err := c.index(id)
	if err != nil {
		return err
	}

	c.changed |= ChangeHighlight
	if i == c.selected {
		return nil
	}

	lg := c.sim.LinkGraph()
	c.selected = i
	c.highlight = render.SelectHighlight(c.sim.Nodes(), c.sim.Links(), i, lg.Linked, c.theme)

	if c.outside == nil && c.bus != nil {
		c.outside = c.bus.Subscribe(window.KindClick, c.handleOutsideClick)
	}

	logging.Debug("Node selected", "id", id, "neighbors", lg.Degree(i))
	return nil
}

func (c *Controller) handleOutsideClick(e window.Event) {
	if e.Target.Kind == window.TargetNode || e.Target.Kind == window.TargetPanel {
		return
	}
	c.Deselect()
}

// Deselect clears the selection and restores every element to its default
// style
func (c *Controller) Deselect() {
	c.outside.Release()
	c.outside = nil

	if c.selected < 0 {
		return
	}
	c.selected = -1
	c.highlight = render.DefaultHighlight(c.sim.Nodes(), c.sim.Links())
	c.changed |= ChangeHighlight
}

// Click handles a click that reached the graph. Node clicks select the node;
// anything else is left to the window-level outside click subscription.
func (c *Controller) Click(target window.Target) error {
	if target.Kind != window.TargetNode {
		return nil
	}
	return c.Select(target.ID)
}

// DragStart pins id at its current position and heats the simulation up.
// Starting a drag on another node ends the previous drag first.
func (c *Controller) DragStart(id string) error {
	i, err := c.index(id)
	if err != nil {
		return err
	}
	if c.dragging >= 0 && c.dragging != i {
		c.endDrag()
	}

	n := &c.sim.Nodes()[i]
	n.Fix(n.X, n.Y)
	c.dragging = i

	c.sim.SetAlphaTarget(DragAlphaTarget)
	c.sim.Restart()
	c.changed |= ChangeLayout
	return nil
}

// DragMove moves the override of the dragged node to (x, y) in layout
// coordinates, clamped to the viewport. Moves for a node that is not being
// dragged are ignored.
func (c *Controller) DragMove(id string, x, y float64) error {
	i, err := c.index(id)
	if err != nil {
		return err
	}
	if i != c.dragging {
		logging.Debug("Ignoring drag move without drag start", "id", id)
		return nil
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return nil
	}

	x, y = constraint.Point(x, y, c.width, c.height, ConstraintPadding)
	n := &c.sim.Nodes()[i]
	n.Fix(x, y)
	n.X, n.Y = x, y
	c.changed |= ChangeLayout
	return nil
}

// DragEnd cools the simulation down and releases the dragged node where it
// is. Ending a drag that is not in progress does nothing.
func (c *Controller) DragEnd(id string) error {
	i, err := c.index(id)
	if err != nil {
		return err
	}
	if i != c.dragging {
		return nil
	}
	c.endDrag()
	return nil
}

func (c *Controller) endDrag() {
	n := &c.sim.Nodes()[c.dragging]
	if n.Fixed() {
		n.X, n.Y = constraint.Point(*n.FX, *n.FY, c.width, c.height, ConstraintPadding)
	}
	n.Release()
	c.dragging = -1

	c.sim.SetAlphaTarget(0)
	c.changed |= ChangeLayout
}

// Zoom replaces the view transform, clamping its scale
func (c *Controller) Zoom(t render.Transform) {
	if t.K == 0 || math.IsNaN(t.K) {
		t.K = c.transform.K
	}
	t.K = clampScale(t.K)
	c.setTransform(t)
}

// ZoomIn scales the view up about the viewport center
func (c *Controller) ZoomIn() {
	c.scaleBy(ZoomInFactor)
}

// ZoomOut scales the view down about the viewport center
func (c *Controller) ZoomOut() {
	c.scaleBy(ZoomOutFactor)
}

func (c *Controller) scaleBy(factor float64) {
	cx, cy := c.width/2, c.height/2
	lx, ly := c.transform.Invert(cx, cy)
	k := clampScale(c.transform.K * factor)
	c.setTransform(render.Transform{X: cx - lx*k, Y: cy - ly*k, K: k})
}

func (c *Controller) setTransform(t render.Transform) {
	if t != c.transform {
		c.transform = t
		c.changed |= ChangeView
	}
}

func clampScale(k float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, k))
}

// AutoFit fits the drawn layout into FitFraction of the viewport. It runs at
// most once per controller and reports whether it changed the view.
func (c *Controller) AutoFit() bool {
	if c.fitted {
		return false
	}
	c.fitted = true

	b := render.LayoutBounds(c.sim.Nodes(), c.appearance.NodeRadius)
	if b.Empty() {
		return false
	}

	k := clampScale(FitFraction / math.Max(b.Width/c.width, b.Height/c.height))
	c.setTransform(render.Transform{
		X: c.width/2 - k*(b.X+b.Width/2),
		Y: c.height/2 - k*(b.Y+b.Height/2),
		K: k,
	})
	logging.Debug("Auto fit", "scale", k)
	return true
}

// Fitted reports whether AutoFit has run
func (c *Controller) Fitted() bool {
	return c.fitted
}

// Resize rebuilds the viewport-dependent forces for the new size and lets the
// layout re-settle. Positions are kept and only clamped into the new bounds.
func (c *Controller) Resize(width, height float64) error {
	if !validSize(width, height) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, width, height)
	}
	c.width, c.height = width, height

	forces := force.Configure(c.prefs.Arrangement, width, height)
	for _, name := range force.DimensionNames {
		c.sim.SetForce(name, forces[name])
	}
	constraint.Clamp(c.sim.Nodes(), width, height, ConstraintPadding)

	c.sim.SetAlpha(ResizeAlpha)
	c.sim.Restart()
	// The view carries the viewport size
	c.changed |= ChangeLayout | ChangeView

	logging.Debug("Viewport resized", "width", width, "height", height)
	return nil
}

// Constrain clamps all nodes into the current viewport
func (c *Controller) Constrain() {
	constraint.Clamp(c.sim.Nodes(), c.width, c.height, ConstraintPadding)
}

// Changed returns the changes since the previous call and clears them
func (c *Controller) Changed() Change {
	changed := c.changed
	c.changed = 0
	return changed
}

// Selected returns the id of the selected node
func (c *Controller) Selected() (string, bool) {
	if c.selected < 0 {
		return "", false
	}
	return c.sim.Nodes()[c.selected].ID, true
}

// Dragging returns the id of the node being dragged
func (c *Controller) Dragging() (string, bool) {
	if c.dragging < 0 {
		return "", false
	}
	return c.sim.Nodes()[c.dragging].ID, true
}

// Highlight returns the current highlight styles
func (c *Controller) Highlight() render.Highlight {
	return c.highlight
}

// Detail returns the panel payload of the selected node
func (c *Controller) Detail() (render.Detail, bool) {
	if c.selected < 0 {
		return render.Detail{}, false
	}
	return render.NewDetail(&c.sim.Nodes()[c.selected], c.prefs, c.theme), true
}

// Transform returns the view transform
func (c *Controller) Transform() render.Transform {
	return c.transform
}

// Size returns the viewport size
func (c *Controller) Size() (float64, float64) {
	return c.width, c.height
}

// Appearance returns the style-dependent drawing parameters
func (c *Controller) Appearance() render.Appearance {
	return c.appearance
}

// Scene returns everything needed to draw the current state
func (c *Controller) Scene() render.Scene {
	return render.Scene{
		Width:       int(math.Round(c.width)),
		Height:      int(math.Round(c.height)),
		Nodes:       c.sim.Nodes(),
		Links:       c.sim.Links(),
		Highlight:   c.highlight,
		Transform:   c.transform,
		Theme:       c.theme,
		Arrangement: c.prefs.Arrangement,
		Appearance:  c.appearance,
	}
}

// Close releases the window subscriptions held by the controller
func (c *Controller) Close() {
	c.outside.Release()
	c.outside = nil
}
