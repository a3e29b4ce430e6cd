package models

import "time"

// SessionState is the persisted form of a review session: enough to accept
// or reject the pending fixes from a later process.
type SessionState struct {
	ID        string            `json:"id"`
	Root      string            `json:"root"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Originals map[string]string `json:"originals"`
	Proposed  map[string]string `json:"proposed"`
}

// HasPending reports whether any proposed fix is still waiting for a decision.
func (s *SessionState) HasPending() bool {
	return s != nil && len(s.Proposed) > 0
}

// Decision is the terminal action taken on a proposed fix.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
	DecisionSkip   Decision = "skip"
)
