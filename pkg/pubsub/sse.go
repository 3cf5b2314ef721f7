package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/gardener-conformance/pkg/logging"
)

// TopicConfig configures how a topic is replayed to late subscribers
type TopicConfig struct {
	BufferSize int  // Events kept for replay (0 = no replay)
	ReplayAll  bool // Replay every kept event instead of only the latest
}

// topic holds the subscribers and the replay backlog of one topic.
// The backlog only ever holds events of a single run.
type topic struct {
	config  TopicConfig
	version int
	runID   string
	backlog []Event
	subs    map[*sseSubscription]struct{}
}

// replay returns the events a new subscriber gets
func (t *topic) replay() []Event {
	events := t.backlog
	if !t.config.ReplayAll && len(events) > 1 {
		events = events[len(events)-1:]
	}
	return append([]Event(nil), events...)
}

// record appends event to the backlog, dropping the backlog of an earlier run
func (t *topic) record(event Event) {
	if event.RunID != t.runID {
		t.backlog = nil
		t.runID = event.RunID
	}
	if t.config.BufferSize <= 0 {
		return
	}
	t.backlog = append(t.backlog, event)
	if over := len(t.backlog) - t.config.BufferSize; over > 0 {
		t.backlog = t.backlog[over:]
	}
}

// SSEPublisher implements Publisher for Server-Sent Events
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

func (p *SSEPublisher) topic(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets the replay configuration of a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// Subscribe registers a subscriber and queues the replay of the current run.
// The subscription is closed when ctx ends.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}

	t := p.topic(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, 100),
		publisher: p,
	}
	t.subs[sub] = struct{}{}

	// Queued under the lock so replay and live events keep their order
	replay := t.replay()
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	runID := t.runID
	p.mu.Unlock()

	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "runId", runID, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event of the given run to all subscribers of a topic.
// The first event of a new run replaces the replay backlog of the topic.
func (p *SSEPublisher) Publish(runID, name, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	t := p.topic(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		RunID:   runID,
		Data:    jsonData,
		Version: t.version,
	}
	t.record(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", name, "version", event.Version)
		}
	}
	return nil
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher

	mu     sync.Mutex
	closed bool
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes. The events channel is left to the publisher.
func (s *sseSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.publisher.unsubscribe(s)
	return nil
}

// WriteSSE writes an event as one SSE message: "data: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
