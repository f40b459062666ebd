// Package broadcast defines the port for pushing events to live clients.
package broadcast

import "context"

// Broadcaster fans an event out to all connected clients. Implementations
// must not block the caller on slow consumers.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
