// Package signal defines the outbound notification rows written by
// workflow activities and consumed by the user inbox surface.
package signal

import "time"

// Type classifies a signal for inbox rendering.
type Type string

const (
	TypeStatusUpdate Type = "status_update"
	TypeCompletion   Type = "completion"
	TypeError        Type = "error"
	TypeProgress     Type = "progress"
)

// Valid reports whether t is a known signal type.
func (t Type) Valid() bool {
	switch t {
	case TypeStatusUpdate, TypeCompletion, TypeError, TypeProgress:
		return true
	}
	return false
}

// Signal is one append-only notification row. Only Read/ReadAt ever mutate;
// retention of old rows is an external concern.
type Signal struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	WorkflowID string         `json:"workflow_id"`
	Type       Type           `json:"type"`
	Data       map[string]any `json:"data,omitempty"`
	Read       bool           `json:"read"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
