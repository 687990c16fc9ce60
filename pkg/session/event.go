package session

import (
	"errors"
	"fmt"

	"github.com/ritzau/litgraph/pkg/window"
)

// ErrInvalidEvent is returned for events that are malformed
var ErrInvalidEvent = errors.New("invalid event")

// EventType names an interaction event
type EventType string

const (
	EventClick     EventType = "click"
	EventSelect    EventType = "select"
	EventDeselect  EventType = "deselect"
	EventDragStart EventType = "drag_start"
	EventDragMove  EventType = "drag_move"
	EventDragEnd   EventType = "drag_end"
	EventZoom      EventType = "zoom"
	EventZoomIn    EventType = "zoom_in"
	EventZoomOut   EventType = "zoom_out"
	EventResize    EventType = "resize"
)

// Event is an interaction event as posted by the browser. Which fields are
// used depends on Type: ID for select and drag events, X and Y for drag
// moves, X, Y and K for zoom, Width and Height for resize and Target for
// clicks.
type Event struct {
	Type   EventType     `json:"type"`
	ID     string        `json:"id,omitempty"`
	Target window.Target `json:"target,omitempty"`
	X      float64       `json:"x,omitempty"`
	Y      float64       `json:"y,omitempty"`
	K      float64       `json:"k,omitempty"`
	Width  float64       `json:"width,omitempty"`
	Height float64       `json:"height,omitempty"`
}

// Validate checks that the fields the event type needs are present
func (e Event) Validate() error {
	switch e.Type {
	case EventSelect, EventDragStart, EventDragMove, EventDragEnd:
		if e.ID == "" {
			return fmt.Errorf("%w: %s needs an id", ErrInvalidEvent, e.Type)
		}
	case EventClick:
		switch e.Target.Kind {
		case window.TargetNode:
			if e.Target.ID == "" {
				return fmt.Errorf("%w: node click needs an id", ErrInvalidEvent)
			}
		case window.TargetPanel, window.TargetBackground:
		default:
			return fmt.Errorf("%w: unknown click target %q", ErrInvalidEvent, e.Target.Kind)
		}
	case EventZoom:
		if e.K <= 0 {
			return fmt.Errorf("%w: zoom needs a positive scale", ErrInvalidEvent)
		}
	case EventResize:
		if e.Width <= 0 || e.Height <= 0 {
			return fmt.Errorf("%w: resize needs a positive size", ErrInvalidEvent)
		}
	case EventDeselect, EventZoomIn, EventZoomOut:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}
