// Package document defines the Document domain entity.
package document

import (
	"errors"
	"time"
)

// Status represents the lifecycle state of an ingested document.
type Status string

const (
	// StatusPending means the document is stored but no review workflow has
	// started, either because the start is still in flight or because the
	// orchestration engine was unreachable at upload time.
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusFailed      Status = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusUnderReview,
		StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Document represents one ingested file awaiting or undergoing review.
type Document struct {
	ID                string             `json:"id"`
	TopicID           string             `json:"topic_id"`
	UserID            string             `json:"user_id,omitempty"`
	FilePath          string             `json:"file_path"`
	Status            Status             `json:"status"`
	RelevanceScore    *float64           `json:"relevance_score,omitempty"`
	QualityIndicators map[string]float64 `json:"quality_indicators,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// CreateRequest holds the fields needed to register a new document.
type CreateRequest struct {
	TopicID  string `json:"topic_id"`
	UserID   string `json:"user_id"`
	FilePath string `json:"file_path"`
}

var (
	ErrTopicRequired    = errors.New("topic_id is required")
	ErrFilePathRequired = errors.New("file_path is required")
)

// Validate checks the create request for correctness.
func (r *CreateRequest) Validate() error {
	if r.TopicID == "" {
		return ErrTopicRequired
	}
	if r.FilePath == "" {
		return ErrFilePathRequired
	}
	return nil
}
