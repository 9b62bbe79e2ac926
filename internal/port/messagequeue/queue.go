// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing signal events to the
// notification surface. Delivery is best-effort; the durable copy of every
// signal lives in the database.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool

	// Close shuts down the queue connection.
	Close() error
}

// Subjects for events published by workflow activities.
const (
	SubjectSignalCreated   = "signals.created" // signals.created.{userID}
	SubjectDocumentIndexed = "signals.indexed" // signals.indexed.{topicID}
)

// SubjectForUser returns the per-user subject for created signals.
func SubjectForUser(userID string) string {
	return SubjectSignalCreated + "." + userID
}
