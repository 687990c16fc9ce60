// Package session runs one layout engine on a single goroutine. Ticks,
// interaction events and queries are serialized by that goroutine so handlers
// always run to completion and observe the state of the last finished tick.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ritzau/litgraph/pkg/interaction"
	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/pubsub"
	"github.com/ritzau/litgraph/pkg/render"
	"github.com/ritzau/litgraph/pkg/window"
)

// ErrClosed is returned by calls on a session that has been torn down
var ErrClosed = errors.New("session closed")

// Defaults for Options
const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultFPS          = 30
	DefaultAutoFitDelay = 500 * time.Millisecond
)

// Options configures the scheduling of a session
type Options struct {
	Width  float64
	Height float64

	// TickInterval is the period of simulation steps while active
	TickInterval time.Duration

	// FPS limits how often frames are published while active. The frame of
	// the settled layout is always published.
	FPS float64

	// AutoFitDelay is how long after start the view is fitted to the layout
	// unless the layout settles first
	AutoFitDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.AutoFitDelay <= 0 {
		o.AutoFitDelay = DefaultAutoFitDelay
	}
}

type call struct {
	fn    func() error
	reply chan error
}

// Session schedules an Engine and publishes its output
type Session struct {
	id     string
	prefs  model.Preferences
	opts   Options
	engine *Engine
	pub    pubsub.Publisher

	limiter *rate.Limiter
	calls   chan call
	resize  *window.Subscription

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Start builds an engine for data and starts its loop. The session runs until
// Close is called or ctx is cancelled.
func Start(ctx context.Context, data model.GraphData, theme model.ThemeConfig, prefs model.Preferences, pub pubsub.Publisher, opts Options) (*Session, error) {
	opts.applyDefaults()

	engine, err := NewEngine(data, theme, prefs, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:      uuid.New().String(),
		prefs:   prefs,
		opts:    opts,
		engine:  engine,
		pub:     pub,
		limiter: rate.NewLimiter(rate.Limit(opts.FPS), 1),
		calls:   make(chan call),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	s.resize = engine.Bus.Subscribe(window.KindResize, func(e window.Event) {
		if err := engine.Controller.Resize(e.Width, e.Height); err != nil {
			logging.Warn("Ignoring resize", "session", s.id, "error", err)
		}
	})

	s.publishStatus("started", "")
	s.publishHighlight()
	s.publishView()
	s.publishFrame(true)

	logging.Info("Session started",
		"session", s.id,
		"arrangement", prefs.Arrangement.String(),
		"focus", prefs.Focus.String(),
		"style", prefs.Style.String(),
		"nodes", len(engine.Sim.Nodes()),
		"links", len(engine.Sim.Links()))

	go s.run(ctx)
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Preferences returns the preferences the session was started with
func (s *Session) Preferences() model.Preferences {
	return s.prefs
}

// Issues returns the data contract problems found at start
func (s *Session) Issues() []error {
	return s.engine.Sim.Issues()
}

// Done is closed when the loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	arm := func() {
		if ticker == nil && s.engine.Sim.Active() {
			ticker = time.NewTicker(s.opts.TickInterval)
			tickC = ticker.C
		}
	}
	disarm := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer disarm()

	fit := time.NewTimer(s.opts.AutoFitDelay)
	defer fit.Stop()

	for {
		arm()

		select {
		case <-ctx.Done():
			return

		case <-tickC:
			s.step()
			if !s.engine.Sim.Active() {
				disarm()
				s.settled()
			}

		case c := <-s.calls:
			c.reply <- c.fn()
			s.flush()

		case <-fit.C:
			s.autoFit()
		}
	}
}

func (s *Session) step() {
	s.engine.Sim.Step()
	s.publishFrame(!s.engine.Sim.Active())
}

func (s *Session) settled() {
	logging.Debug("Layout settled", "session", s.id, "ticks", s.engine.Sim.Ticks())
	s.autoFit()
	s.publishStatus("settled", "")
}

func (s *Session) autoFit() {
	if s.engine.Controller.AutoFit() {
		s.flush()
	}
}

// flush publishes whatever the last handler changed
func (s *Session) flush() {
	changed := s.engine.Controller.Changed()
	if changed.Has(interaction.ChangeHighlight) {
		s.publishHighlight()
	}
	if changed.Has(interaction.ChangeView) {
		s.publishView()
	}
	if changed.Has(interaction.ChangeLayout) {
		s.publishFrame(false)
	}
}

// do runs fn on the session goroutine and waits for it to finish
func (s *Session) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case s.calls <- call{fn: fn, reply: reply}:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle applies an interaction event
func (s *Session) Handle(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.do(ctx, func() error {
		return s.apply(e)
	})
}

func (s *Session) apply(e Event) error {
	ctrl := s.engine.Controller
	switch e.Type {
	case EventClick:
		if e.Target.Kind == window.TargetNode {
			return ctrl.Click(e.Target)
		}
		s.engine.Bus.Dispatch(window.Event{Kind: window.KindClick, Target: e.Target})
	case EventSelect:
		return ctrl.Select(e.ID)
	case EventDeselect:
		ctrl.Deselect()
	case EventDragStart:
		return ctrl.DragStart(e.ID)
	case EventDragMove:
		return ctrl.DragMove(e.ID, e.X, e.Y)
	case EventDragEnd:
		return ctrl.DragEnd(e.ID)
	case EventZoom:
		ctrl.Zoom(render.Transform{X: e.X, Y: e.Y, K: e.K})
	case EventZoomIn:
		ctrl.ZoomIn()
	case EventZoomOut:
		ctrl.ZoomOut()
	case EventResize:
		s.engine.Bus.Dispatch(window.Event{Kind: window.KindResize, Width: e.Width, Height: e.Height})
	}
	return nil
}

// Frame returns the current positions
func (s *Session) Frame(ctx context.Context) (render.Frame, error) {
	var f render.Frame
	err := s.do(ctx, func() error {
		f = s.frame()
		return nil
	})
	return f, err
}

// Highlight returns the current highlight styles
func (s *Session) Highlight(ctx context.Context) (render.Highlight, error) {
	var h render.Highlight
	err := s.do(ctx, func() error {
		h = s.engine.Controller.Highlight()
		return nil
	})
	return h, err
}

// Detail returns the panel payload of the selected node
func (s *Session) Detail(ctx context.Context) (render.Detail, bool, error) {
	var d render.Detail
	var ok bool
	err := s.do(ctx, func() error {
		d, ok = s.engine.Controller.Detail()
		return nil
	})
	return d, ok, err
}

// WriteSVG writes a snapshot of the current state to w
func (s *Session) WriteSVG(ctx context.Context, w io.Writer) error {
	var scene render.Scene
	err := s.do(ctx, func() error {
		scene = s.engine.Controller.Scene()
		scene.Nodes = slices.Clone(scene.Nodes)
		return nil
	})
	if err != nil {
		return err
	}
	return render.WriteSVG(w, scene)
}

// Close stops the loop, releases the window subscriptions and tick listeners
// and waits for the loop to exit. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done

		s.resize.Release()
		s.engine.Close()

		s.publishStatus("closed", "")
		logging.Info("Session closed", "session", s.id, "ticks", s.engine.Sim.Ticks())
	})
}

// Listeners returns the number of window subscriptions and tick listeners
// still registered
func (s *Session) Listeners() int {
	return s.engine.Bus.Len() + s.engine.Sim.Listeners()
}

func (s *Session) frame() render.Frame {
	sim := s.engine.Sim
	return render.NewFrame(sim.Ticks(), sim.Alpha(), sim.Active(), sim.Nodes(), sim.Links())
}

func (s *Session) publishFrame(force bool) {
	if !force && !s.limiter.Allow() {
		return
	}
	eventType := "tick"
	if !s.engine.Sim.Active() {
		eventType = "settled"
	}
	s.publish(pubsub.TopicFrame, eventType, s.frame())
}

type highlightPayload struct {
	Highlight render.Highlight `json:"highlight"`
	Detail    *render.Detail   `json:"detail,omitempty"`
}

func (s *Session) publishHighlight() {
	payload := highlightPayload{Highlight: s.engine.Controller.Highlight()}
	eventType := "deselected"
	if d, ok := s.engine.Controller.Detail(); ok {
		payload.Detail = &d
		eventType = "selected"
	}
	s.publish(pubsub.TopicHighlight, eventType, payload)
}

type viewPayload struct {
	Transform  render.Transform  `json:"transform"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Appearance render.Appearance `json:"appearance"`
}

func (s *Session) publishView() {
	w, h := s.engine.Controller.Size()
	s.publish(pubsub.TopicView, "transform", viewPayload{
		Transform:  s.engine.Controller.Transform(),
		Width:      w,
		Height:     h,
		Appearance: s.engine.Controller.Appearance(),
	})
}

func (s *Session) publishStatus(state, message string) {
	status := pubsub.SessionStatus{
		State:   state,
		ID:      s.id,
		Nodes:   len(s.engine.Sim.Nodes()),
		Links:   len(s.engine.Sim.Links()),
		Message: message,
	}
	for _, issue := range s.engine.Sim.Issues() {
		status.Issues = append(status.Issues, issue.Error())
	}
	s.publish(pubsub.TopicSession, state, status)
}

func (s *Session) publish(topic, eventType string, data any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(topic, eventType, data); err != nil && !errors.Is(err, pubsub.ErrClosed) {
		logging.Warn("Failed to publish", "session", s.id, "topic", topic, "error", err)
	}
}

// String identifies the session in logs
func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.id, s.prefs.Arrangement)
}
