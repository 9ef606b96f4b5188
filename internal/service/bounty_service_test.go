package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/queue"
	"github.com/openclaw/bountyboard/internal/repository"
)

type bountyFixture struct {
	users    *fakeUsers
	bounties *fakeBounties
	sink     *fakeSink
	svc      *BountyService
}

func newBountyFixture() *bountyFixture {
	f := &bountyFixture{
		users:    newFakeUsers(),
		bounties: newFakeBounties(),
		sink:     &fakeSink{},
	}
	f.svc = NewBountyService(f.bounties, f.users, f.sink)
	f.svc.queuePub = nil // no broker in unit tests
	return f
}

func (f *bountyFixture) addUser(t *testing.T, id, handle, org string, suspended bool) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &model.User{
		ID: id, Email: id + "@example.com", Handle: handle,
		Organization: org, IsSuspended: suspended, Loot: "0",
		AccessToken: "tok-" + id,
	}))
}

func validInput() CreateBountyInput {
	return CreateBountyInput{
		Title: "Fix the login page", Details: "details",
		ReferenceLink: "https://example.com/brief", Loot: "50", Days: "3",
	}
}

func TestCreateBounty(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	assert.Equal(t, model.BountyStatusOpen, res.Status)
	assert.Empty(t, res.AcceptedID)
	assert.Equal(t, "u1", res.CreatedBy)
	assert.Equal(t, "alice", res.CreatorDetails)
	assert.Equal(t, "tok-u1", res.NewAccessToken)
	assert.WithinDuration(t, time.Now().UTC(), res.CreatedAt, time.Minute)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, queue.ActionCreated, f.sink.events[0].Action)
	assert.Equal(t, res.ID, f.sink.events[0].Bounty.ID)
}

func TestCreateBountyValidation(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	ctx := context.Background()

	in := validInput()
	in.Title = ""
	_, err := f.svc.Create(ctx, "u1", in)
	assert.ErrorIs(t, err, repository.ErrInvalid)

	_, err = f.svc.Create(ctx, "ghost", validInput())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Empty(t, f.sink.events, "failed creations must not publish")
}

func TestApplyIsConflictOnSecondAttempt(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	b, err := f.svc.Apply(ctx, res.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, b.ListedUsers)

	_, err = f.svc.Apply(ctx, res.ID, "u2")
	assert.ErrorIs(t, err, repository.ErrConflict)

	// exactly one occurrence after the duplicate attempt
	after, err := f.bounties.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, after.ListedUsers)

	_, err = f.svc.Apply(ctx, "missing", "u2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAcceptRequiresListedApplicant(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	f.addUser(t, "u3", "carol", "Org X", false)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, res.ID, "u2")
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, res.ID, "u3")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	b, err := f.svc.Accept(ctx, res.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", b.AcceptedID)
	assert.Equal(t, model.BountyStatusAccepted, b.Status)

	// accepted is terminal: a second accept loses even for a listed user
	_, err = f.svc.Apply(ctx, res.ID, "u3")
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, res.ID, "u3")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestDetailEnrichment(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, res.ID, "u2")
	require.NoError(t, err)

	d, err := f.svc.Detail(ctx, res.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "alice", d.CreatorDetails)
	assert.Equal(t, "tok-u2", d.NewAccessToken)
	require.Len(t, d.Applicants, 1)
	assert.Equal(t, "bob", d.Applicants[0].Handle)
	assert.Equal(t, "u2@example.com", d.Applicants[0].Email)

	_, err = f.svc.Detail(ctx, "missing", "u2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.Detail(ctx, res.ID, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListVisibleScopesByOrganization(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	f.addUser(t, "u3", "carol", "Org Y", false)
	f.addUser(t, "u4", "dave", "Org X", true) // suspended creator
	ctx := context.Background()

	bx, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "u3", validInput())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "u4", validInput())
	require.NoError(t, err)

	page, err := f.svc.ListVisible(ctx, "u2", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "total is the unfiltered count")
	require.Len(t, page.Bounties, 1)
	assert.Equal(t, bx.ID, page.Bounties[0].ID)
	assert.Equal(t, "alice", page.Bounties[0].CreatorDetails)

	// same-org creator sees their own bounty too
	page, err = f.svc.ListVisible(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Bounties, 1)

	// org Y requester sees only the org Y bounty
	page, err = f.svc.ListVisible(ctx, "u3", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Bounties, 1)
	assert.Equal(t, "carol", page.Bounties[0].CreatorDetails)
}

func TestListVisibleRequesterPreconditions(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "susp", "sam", "Org X", true)
	f.addUser(t, "orgless", "olly", "", false)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	_, err = f.svc.ListVisible(ctx, "ghost", 1, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.ListVisible(ctx, "susp", 1, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.ListVisible(ctx, "orgless", 1, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListVisibleEmptyStore(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	_, err := f.svc.ListVisible(context.Background(), "u1", 1, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFilterBounties(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	ctx := context.Background()

	in := validInput()
	in.Title = "Build a parser"
	in.Days = "3"
	in.Loot = "100"
	_, err := f.svc.Create(ctx, "u1", in)
	require.NoError(t, err)

	in2 := validInput()
	in2.Title = "Design a logo"
	in2.Days = "7"
	in2.Loot = "40"
	_, err = f.svc.Create(ctx, "u1", in2)
	require.NoError(t, err)

	out, err := f.svc.FilterBounties(ctx, "u2", "3", "", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Build a parser", out[0].Title)

	out, err = f.svc.FilterBounties(ctx, "u2", "", "50", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "100", out[0].Loot)

	out, err = f.svc.FilterBounties(ctx, "u2", "", "", "LOGO,missingword")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Design a logo", out[0].Title)

	_, err = f.svc.FilterBounties(ctx, "u2", "abc", "", "")
	assert.ErrorIs(t, err, repository.ErrInvalid)
	_, err = f.svc.FilterBounties(ctx, "u2", "", "-5", "")
	assert.ErrorIs(t, err, repository.ErrInvalid)
	_, err = f.svc.FilterBounties(ctx, "u2", "", "", "nothing-matches")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestByRelation(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, res.ID, "u2")
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, res.ID, "u2")
	require.NoError(t, err)

	created, listed, accepted, err := f.svc.ByRelation(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Empty(t, listed)
	assert.Empty(t, accepted)

	created, listed, accepted, err = f.svc.ByRelation(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, listed, 1)
	assert.Len(t, accepted, 1)
}

func TestEveryMutationPublishesExactlyOnce(t *testing.T) {
	f := newBountyFixture()
	f.addUser(t, "u1", "alice", "Org X", false)
	f.addUser(t, "u2", "bob", "Org X", false)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, res.ID, "u2")
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, res.ID, "u2")
	require.NoError(t, err)

	// failed apply publishes nothing
	_, err = f.svc.Apply(ctx, res.ID, "u2")
	require.Error(t, err)

	require.Len(t, f.sink.events, 3)
	assert.Equal(t, queue.ActionCreated, f.sink.events[0].Action)
	assert.Equal(t, queue.ActionApplied, f.sink.events[1].Action)
	assert.Equal(t, queue.ActionAccepted, f.sink.events[2].Action)
	assert.Equal(t, "u2", f.sink.events[2].UserID)
}
