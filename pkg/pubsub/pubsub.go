package pubsub

import (
	"context"
	"encoding/json"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "suite_status", "case_result")
	Type    string          `json:"type"`    // Event type (e.g., "running", "passed", "failed")
	RunID   string          `json:"run_id,omitempty"`
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

	// Publish sends an event of a run to all subscribers of a topic.
	// Only events of the latest run are replayed to new subscribers.
	Publish(runID, topic, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// Topics published during a conformance run
const (
	TopicSuiteStatus = "suite_status"
	TopicCaseResult  = "case_result"
)

// Suite states
const (
	StateRunning = "running"
	StatePassed  = "passed"
	StateFailed  = "failed"
)

// SuiteStatus represents the progress of a conformance run
type SuiteStatus struct {
	RunID   string `json:"run_id"`
	State   string `json:"state"`   // running, passed, failed
	Message string `json:"message"` // Human-readable status message
	Done    int    `json:"done"`    // Cases finished so far
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// CaseEvent is published once per finished case
type CaseEvent struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
