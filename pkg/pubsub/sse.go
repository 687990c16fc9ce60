package pubsub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"

	"github.com/ritzau/litgraph/pkg/logging"
)

var (
	// ErrClosed is returned when publishing or subscribing after Close
	ErrClosed = errors.New("publisher is closed")

	// ErrUnknownTopic is returned for topics the publisher was not built with
	ErrUnknownTopic = errors.New("unknown topic")
)

// subscriberQueue is the number of events a subscriber may lag behind
const subscriberQueue = 64

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events kept for late subscribers (0 = none)
	ReplayAll  bool // Replay every kept event; otherwise only the latest
}

// SessionTopics returns the topic configuration of a layout session. Frame,
// highlight and view are state: a late subscriber only needs the latest
// event. The session topic is a history and is replayed in full.
func SessionTopics() map[string]TopicConfig {
	return map[string]TopicConfig{
		TopicFrame:     {BufferSize: 1},
		TopicHighlight: {BufferSize: 1},
		TopicView:      {BufferSize: 1},
		TopicSession:   {BufferSize: 8, ReplayAll: true},
	}
}

// topic holds everything the publisher knows about one topic
type topic struct {
	name    string
	config  TopicConfig
	version int
	kept    []Event
	subs    map[*sseSubscription]struct{}
}

// replay returns the kept events a new subscriber receives
func (t *topic) replay() []Event {
	if len(t.kept) == 0 || t.config.ReplayAll {
		return t.kept
	}
	return t.kept[len(t.kept)-1:]
}

func (t *topic) keep(e Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.kept = append(t.kept, e)
	if over := len(t.kept) - t.config.BufferSize; over > 0 {
		t.kept = append([]Event(nil), t.kept[over:]...)
	}
}

// SSEPublisher fans session events out to Server-Sent Events subscribers.
// The set of topics is fixed when the publisher is created.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a publisher for the given topics
func NewSSEPublisher(configs map[string]TopicConfig) *SSEPublisher {
	p := &SSEPublisher{topics: make(map[string]*topic, len(configs))}
	for name, config := range configs {
		p.topics[name] = &topic{
			name:   name,
			config: config,
			subs:   make(map[*sseSubscription]struct{}),
		}
	}
	return p
}

// NewSessionPublisher returns a publisher for the session topics
func NewSessionPublisher() *SSEPublisher {
	return NewSSEPublisher(SessionTopics())
}

func (p *SSEPublisher) lookup(name string) (*topic, error) {
	if p.closed {
		return nil, ErrClosed
	}
	t, ok := p.topics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
	}
	return t, nil
}

// Subscribe creates a subscription that first receives the kept events of
// the topic. It is closed when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, err := p.lookup(name)
	if err != nil {
		return nil, err
	}

	sub := &sseSubscription{
		topic:     t,
		events:    make(chan Event, subscriberQueue),
		closing:   make(chan struct{}),
		publisher: p,
	}

	// Replaying under the lock keeps replayed and live events in version order
	replay := t.replay()
	for _, e := range replay {
		sub.offer(e)
	}
	t.subs[sub] = struct{}{}
	logging.Debug("Subscribed", "topic", name, "replayed", len(replay), "subscribers", len(t.subs))

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closing:
		}
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic. Subscribers that
// lag behind lose their oldest queued events, never the latest one.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	t, err := p.lookup(name)
	if err != nil {
		return err
	}

	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    payload,
		Version: t.version,
	}
	t.keep(event)

	for sub := range t.subs {
		if sub.offer(event) {
			logging.Trace("Subscriber lagging, dropped oldest event", "topic", name, "type", eventType)
		}
	}
	return nil
}

// Reset forgets the kept events of a topic so that a replaced session's state
// is not replayed. Versions keep increasing.
func (p *SSEPublisher) Reset(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		t.kept = nil
	}
}

// Subscribers returns the number of open subscriptions to a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

// Close ends every subscription. Later calls to Publish and Subscribe
// return ErrClosed.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			sub.end()
		}
	}
	return nil
}

// sseSubscription implements Subscription. Its fields are guarded by the
// publisher's mutex.
type sseSubscription struct {
	topic     *topic
	events    chan Event
	publisher *SSEPublisher
	closed    bool
	closing   chan struct{}
}

// offer queues e, dropping the oldest queued event when the queue is full.
// It reports whether an event was dropped.
func (s *sseSubscription) offer(e Event) bool {
	select {
	case s.events <- e:
		return false
	default:
	}
	select {
	case <-s.events:
	default:
	}
	s.events <- e
	return true
}

// end removes the subscription from its topic and closes its channel.
// The publisher's mutex must be held.
func (s *sseSubscription) end() {
	if s.closed {
		return
	}
	s.closed = true
	delete(s.topic.subs, s)
	close(s.events)
	close(s.closing)
}

// Topic returns the subscription topic
func (s *sseSubscription) Topic() string {
	return s.topic.name
}

// Events returns the channel of events. It is closed when the subscription
// ends.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription
func (s *sseSubscription) Close() error {
	s.publisher.mu.Lock()
	defer s.publisher.mu.Unlock()
	s.end()
	return nil
}

// WriteSSE writes an event as one Server-Sent Events message. The version is
// sent as the event id.
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, payload)
	return err
}
