// Package topic defines the grouping key documents are ingested under,
// carrying the per-topic assessment criteria.
package topic

import (
	"time"

	"github.com/kbforge/kbforge/internal/domain/assessment"
)

// Topic groups documents and holds the criteria handed to the scoring
// collaborator for every document in the group.
type Topic struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Criteria  assessment.Criteria `json:"criteria"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
