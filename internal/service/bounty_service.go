package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/queue"
	"github.com/openclaw/bountyboard/internal/repository"
)

// BountyStore is the subset of the bounty repository the engine needs.
type BountyStore interface {
	Create(ctx context.Context, b *model.Bounty) error
	GetByID(ctx context.Context, id string) (*model.Bounty, error)
	ListPage(ctx context.Context, page, limit int) ([]model.Bounty, error)
	CountAll(ctx context.Context) (int, error)
	AddApplicant(ctx context.Context, bountyID, userID string) error
	Accept(ctx context.Context, bountyID, userID string) error
	ByCreator(ctx context.Context, userID string) ([]model.Bounty, error)
	ByApplicant(ctx context.Context, userID string) ([]model.Bounty, error)
	ByAccepted(ctx context.Context, userID string) ([]model.Bounty, error)
	Filter(ctx context.Context, crit repository.FilterCriteria) ([]model.Bounty, error)
}

// EventSink receives one event per successful bounty mutation. The
// in-process fan-out hub implements it.
type EventSink interface {
	Publish(ev queue.BountyEvent)
}

// CreateBountyInput carries the required fields of a new bounty plus an
// optional initial applicant list.
type CreateBountyInput struct {
	Title         string   `json:"title"`
	Details       string   `json:"details"`
	ReferenceLink string   `json:"referenceLink"`
	Loot          string   `json:"loot"`
	Days          string   `json:"days"`
	ListedUsers   []string `json:"listedUsers"`
}

// BountyWithToken is a freshly created bounty together with the
// creator's current access token. Returning the live token on writes
// and reads keeps the caller's session fresh without a refresh call.
type BountyWithToken struct {
	model.Bounty
	CreatorDetails string `json:"creatorDetails"`
	NewAccessToken string `json:"newAccessToken"`
}

// BountyWithCreator is a listing row enriched with the creator's handle.
type BountyWithCreator struct {
	model.Bounty
	CreatorDetails string `json:"creatorDetails"`
}

// ListedUserDetail describes one applicant on the bounty detail view.
type ListedUserDetail struct {
	UserID string `json:"userId"`
	Handle string `json:"handle"`
	Loot   string `json:"loot"`
	Email  string `json:"email"`
}

// BountyDetail is the enriched single-bounty view.
type BountyDetail struct {
	model.Bounty
	CreatorDetails string             `json:"creatorDetails"`
	Applicants     []ListedUserDetail `json:"applicants"`
	NewAccessToken string             `json:"newAccessToken"`
}

// BountyPage is one page of the organization-scoped listing. Total is
// the unfiltered count: pagination runs before the visibility filter,
// so a page can come back shorter than the limit even when more visible
// bounties exist further on.
type BountyPage struct {
	Bounties []BountyWithCreator `json:"bounties"`
	Total    int                 `json:"totalBounties"`
}

// BountyService orchestrates bounty creation, application, acceptance
// and organization-scoped reads. It reads the user store only for
// authorization and visibility context; all bounty writes go through
// the bounty store's conditional updates.
type BountyService struct {
	bounties BountyStore
	users    UserStore
	sink     EventSink

	// queuePub forwards events to the durable broker queue; failures
	// are already logged by the publisher and never fail the mutation.
	queuePub func(ctx context.Context, ev queue.BountyEvent) error
}

func NewBountyService(bounties BountyStore, users UserStore, sink EventSink) *BountyService {
	return &BountyService{
		bounties: bounties,
		users:    users,
		sink:     sink,
		queuePub: PublishBountyEvent,
	}
}

// Create validates the input, stores a new open bounty and broadcasts it.
func (s *BountyService) Create(ctx context.Context, creatorID string, in CreateBountyInput) (*BountyWithToken, error) {
	if creatorID == "" || in.Title == "" || in.Loot == "" || in.Details == "" || in.ReferenceLink == "" || in.Days == "" {
		return nil, fmt.Errorf("%w: missing required fields", repository.ErrInvalid)
	}
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	b := &model.Bounty{
		ID:            uuid.NewString(),
		CreatedBy:     creatorID,
		Title:         in.Title,
		Details:       in.Details,
		ReferenceLink: in.ReferenceLink,
		Loot:          in.Loot,
		Days:          in.Days,
		ListedUsers:   []string{},
		Status:        model.BountyStatusOpen,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.bounties.Create(ctx, b); err != nil {
		return nil, err
	}
	for _, id := range in.ListedUsers {
		if id == "" {
			continue
		}
		if err := s.bounties.AddApplicant(ctx, b.ID, id); err == nil {
			b.ListedUsers = append(b.ListedUsers, id)
		}
	}
	s.publish(ctx, queue.ActionCreated, "", *b)
	return &BountyWithToken{Bounty: *b, CreatorDetails: creator.Handle, NewAccessToken: creator.AccessToken}, nil
}

// Apply appends the applicant to the bounty's listed users. A second
// application by the same user is rejected with ErrConflict and leaves
// the set unchanged.
func (s *BountyService) Apply(ctx context.Context, bountyID, applicantID string) (*model.Bounty, error) {
	if applicantID == "" {
		return nil, fmt.Errorf("%w: applicant id required", repository.ErrInvalid)
	}
	if _, err := s.bounties.GetByID(ctx, bountyID); err != nil {
		return nil, err
	}
	if err := s.bounties.AddApplicant(ctx, bountyID, applicantID); err != nil {
		return nil, err
	}
	b, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.ActionApplied, applicantID, *b)
	return b, nil
}

// Accept marks the applicant as accepted. The applicant must already be
// listed (otherwise ErrNotFound); a bounty that was already accepted
// rejects the call with ErrConflict from the conditional update.
func (s *BountyService) Accept(ctx context.Context, bountyID, applicantID string) (*model.Bounty, error) {
	b, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if !contains(b.ListedUsers, applicantID) {
		return nil, fmt.Errorf("%w: user %s is not listed for this bounty", repository.ErrNotFound, applicantID)
	}
	if err := s.bounties.Accept(ctx, bountyID, applicantID); err != nil {
		return nil, err
	}
	b.AcceptedID = applicantID
	b.Status = model.BountyStatusAccepted
	s.publish(ctx, queue.ActionAccepted, applicantID, *b)
	return b, nil
}

// Detail resolves a bounty and enriches it with the creator's handle,
// per-applicant tuples and the requester's current access token.
func (s *BountyService) Detail(ctx context.Context, bountyID, requesterID string) (*BountyDetail, error) {
	b, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	d := &BountyDetail{Bounty: *b, NewAccessToken: requester.AccessToken}
	if creator, err := s.users.GetByID(ctx, b.CreatedBy); err == nil {
		d.CreatorDetails = creator.Handle
	}
	d.Applicants = make([]ListedUserDetail, 0, len(b.ListedUsers))
	for _, id := range b.ListedUsers {
		lu, err := s.users.GetByID(ctx, id)
		if err != nil {
			// dangling reference, keep the id so the client can still render something
			d.Applicants = append(d.Applicants, ListedUserDetail{UserID: id})
			continue
		}
		d.Applicants = append(d.Applicants, ListedUserDetail{
			UserID: id, Handle: lu.Handle, Loot: lu.Loot, Email: lu.Email,
		})
	}
	return d, nil
}

// ListVisible returns one page of bounties visible to the requester: a
// bounty is visible iff its creator shares the requester's organization
// and neither side is suspended. The requester must exist, not be
// suspended and belong to an organization.
func (s *BountyService) ListVisible(ctx context.Context, requesterID string, page, limit int) (*BountyPage, error) {
	requester, err := s.requireOrgMember(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	items, err := s.bounties.ListPage(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.bounties.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no bounties found", repository.ErrNotFound)
	}
	return &BountyPage{Bounties: s.visibleTo(ctx, requester, items), Total: total}, nil
}

// FilterBounties narrows the search by exact days, minimum loot and
// case-insensitive keyword substrings of the title, then applies the
// same visibility rule as ListVisible.
func (s *BountyService) FilterBounties(ctx context.Context, requesterID, days, loot, keywords string) ([]BountyWithCreator, error) {
	requester, err := s.requireOrgMember(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	var crit repository.FilterCriteria
	if days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: invalid \"days\" filter value", repository.ErrInvalid)
		}
		crit.Days = n
	}
	if loot != "" {
		n, err := strconv.Atoi(loot)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: invalid \"loot\" filter value", repository.ErrInvalid)
		}
		crit.MinLoot = n
	}
	if keywords != "" {
		crit.Keywords = strings.Split(keywords, ",")
	}
	items, err := s.bounties.Filter(ctx, crit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no bounties found for the applied filters", repository.ErrNotFound)
	}
	return s.visibleTo(ctx, requester, items), nil
}

// ByRelation returns the user's bounties split three ways: created by,
// applied to, accepted for. The splits are disjoint by query, not
// necessarily by content.
func (s *BountyService) ByRelation(ctx context.Context, userID string) (created, listed, accepted []model.Bounty, err error) {
	if created, err = s.bounties.ByCreator(ctx, userID); err != nil {
		return nil, nil, nil, err
	}
	if listed, err = s.bounties.ByApplicant(ctx, userID); err != nil {
		return nil, nil, nil, err
	}
	if accepted, err = s.bounties.ByAccepted(ctx, userID); err != nil {
		return nil, nil, nil, err
	}
	return created, listed, accepted, nil
}

// requireOrgMember resolves the requester and enforces the listing
// preconditions: present, not suspended, has an organization.
func (s *BountyService) requireOrgMember(ctx context.Context, requesterID string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if u.IsSuspended {
		return nil, fmt.Errorf("%w: account is suspended", repository.ErrNotFound)
	}
	if u.Organization == "" {
		return nil, fmt.Errorf("%w: user does not belong to an organization", repository.ErrNotFound)
	}
	return u, nil
}

// visibleTo keeps only the bounties whose creator shares the
// requester's organization and is not suspended, attaching the
// creator's handle to each survivor.
func (s *BountyService) visibleTo(ctx context.Context, requester *model.User, items []model.Bounty) []BountyWithCreator {
	out := []BountyWithCreator{}
	for _, b := range items {
		creator, err := s.users.GetByID(ctx, b.CreatedBy)
		if err != nil || creator.IsSuspended || creator.Organization != requester.Organization {
			continue
		}
		out = append(out, BountyWithCreator{Bounty: b, CreatorDetails: creator.Handle})
	}
	return out
}

// publish fans the event out to connected observers and forwards it to
// the broker queue. Neither path may fail the mutation.
func (s *BountyService) publish(ctx context.Context, action, userID string, b model.Bounty) {
	ev := queue.BountyEvent{Action: action, UserID: userID, Bounty: b}
	if s.sink != nil {
		s.sink.Publish(ev)
	}
	if s.queuePub != nil {
		_ = s.queuePub(ctx, ev)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
