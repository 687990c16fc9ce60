package pubsub

import (
	"context"

	"github.com/goccy/go-json"
)

// Topics published by a layout session
const (
	TopicFrame     = "frame"     // node and link positions per tick
	TopicHighlight = "highlight" // tier styles and detail payload after selection changes
	TopicView      = "view"      // zoom and pan transform, viewport size
	TopicSession   = "session"   // session lifecycle
)

// Topics lists every topic a client may subscribe to
var Topics = []string{TopicFrame, TopicHighlight, TopicView, TopicSession}

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "frame", "view")
	Type    string          `json:"type"`    // Event type (e.g., "tick", "settled", "started")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// SessionStatus is the payload of the session topic
type SessionStatus struct {
	State   string   `json:"state"` // started, settled, closed
	ID      string   `json:"id"`
	Nodes   int      `json:"nodes"`
	Links   int      `json:"links"`
	Issues  []string `json:"issues,omitempty"`
	Message string   `json:"message,omitempty"`
}
