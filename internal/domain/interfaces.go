package domain

import "context"

// FeedWorker defines the interface for market-data WebSocket connectors
type FeedWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// AlertSink is the durable append-only store for qualifying events.
// Appends must never be rate-limited: every crossing is recorded.
type AlertSink interface {
	Append(rec AlertRecord) error
	Close() error
}
