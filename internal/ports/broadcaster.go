package ports

// Fan-out of realtime events to connected clients.
type Broadcaster interface {
	Broadcast(eventType string, data any)
}
