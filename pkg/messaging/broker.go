package messaging

import (
	"context"
)

// Broker defines the interface for message brokers. Publication is
// at-most-once: the core never depends on delivery for correctness and
// consumers are expected to re-fetch authoritative state.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the wire envelope for published events.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
