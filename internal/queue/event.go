// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

import "github.com/openclaw/bountyboard/internal/model"

// Bounty event actions.
const (
	ActionCreated  = "created"
	ActionApplied  = "applied"
	ActionAccepted = "accepted"
)

// BountyEvent is emitted once per successful bounty mutation. The same
// payload goes to the in-process fan-out hub (for connected SSE
// observers) and to the durable bounty.events queue (for the audit
// consumer). It carries the full bounty snapshot after the mutation so
// downstream consumers never need to query the primary database.
type BountyEvent struct {
	Action string       `json:"action"`
	UserID string       `json:"userId,omitempty"` // applicant or accepted user, when relevant
	Bounty model.Bounty `json:"bounty"`
}
