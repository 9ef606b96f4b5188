package model

import "time"

// Bounty lifecycle states. A bounty starts open and becomes accepted
// exactly once; applications are a self-loop on open.
const (
	BountyStatusOpen     = "open"
	BountyStatusAccepted = "accepted"
)

// Bounty is a task record with a reward, an applicant set and at most one
// accepted applicant. CreatedBy, the descriptive fields and CreatedAt are
// immutable after creation. AcceptedID is empty until an applicant is
// accepted. ListedUsers is loaded from the bounty_applicants table in
// application order.
type Bounty struct {
	ID            string    `json:"id"`
	CreatedBy     string    `json:"createdBy"`
	Title         string    `json:"title"`
	Details       string    `json:"details"`
	ReferenceLink string    `json:"referenceLink"`
	Loot          string    `json:"loot"`
	Days          string    `json:"days"`
	ListedUsers   []string  `json:"listedUsers"`
	AcceptedID    string    `json:"acceptedId,omitempty"`
	Status        string    `json:"status"`
	IsSuspended   bool      `json:"isSuspended"`
	CreatedAt     time.Time `json:"createdAt"`
}
