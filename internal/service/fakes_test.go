package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/queue"
	"github.com/openclaw/bountyboard/internal/repository"
)

// ---- fakes ----

// fakeUsers is an in-memory UserStore with the same uniqueness and
// not-found semantics as the MySQL repository.
type fakeUsers struct {
	byID map[string]*model.User
	ops  map[string][]model.Operation
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*model.User{}, ops: map[string][]model.Operation{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, ex := range f.byID {
		if ex.Email == u.Email {
			return fmt.Errorf("%w: email already exists", repository.ErrConflict)
		}
		if u.Handle != "" && ex.Handle == u.Handle {
			return fmt.Errorf("%w: handle already exists", repository.ErrConflict)
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) update(id string, fn func(*model.User)) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsers) UpdateAccessToken(_ context.Context, id, token string) error {
	return f.update(id, func(u *model.User) { u.AccessToken = token })
}

func (f *fakeUsers) LinkGoogle(_ context.Context, id, googleID, googleToken string) error {
	return f.update(id, func(u *model.User) {
		u.GoogleID, u.GoogleToken, u.IsGoogleUser = googleID, googleToken, true
	})
}

func (f *fakeUsers) SetRegistered(_ context.Context, id string, registered bool) error {
	return f.update(id, func(u *model.User) { u.IsRegistered = registered })
}

func (f *fakeUsers) SetOTP(_ context.Context, id, code string, expiresAt time.Time) error {
	return f.update(id, func(u *model.User) {
		u.OTPCode, u.OTPExpiresAt, u.OTPVerified = code, expiresAt, false
	})
}

func (f *fakeUsers) MarkOTPVerified(_ context.Context, id string) error {
	return f.update(id, func(u *model.User) { u.OTPVerified = true })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return f.update(id, func(u *model.User) {
		u.PasswordHash = hash
		u.OTPCode, u.OTPExpiresAt, u.OTPVerified = "", time.Time{}, false
	})
}

func (f *fakeUsers) AddOperation(_ context.Context, op *model.Operation) error {
	op.ID = uint64(len(f.ops[op.UserID]) + 1)
	f.ops[op.UserID] = append(f.ops[op.UserID], *op)
	return nil
}

func (f *fakeUsers) OperationsByUser(_ context.Context, userID string) ([]model.Operation, error) {
	return f.ops[userID], nil
}

// fakeMailer records deliveries and can simulate a broken relay.
type fakeMailer struct {
	sent []string // "email:code"
	err  error
}

func (f *fakeMailer) SendOTP(to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+":"+code)
	return nil
}

// fakeBounties is an in-memory BountyStore with the repository's
// conditional-update semantics.
type fakeBounties struct {
	byID map[string]*model.Bounty
}

func newFakeBounties() *fakeBounties {
	return &fakeBounties{byID: map[string]*model.Bounty{}}
}

func (f *fakeBounties) Create(_ context.Context, b *model.Bounty) error {
	cp := *b
	cp.ListedUsers = append([]string{}, b.ListedUsers...)
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBounties) GetByID(_ context.Context, id string) (*model.Bounty, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	cp.ListedUsers = append([]string{}, b.ListedUsers...)
	return &cp, nil
}

func (f *fakeBounties) all() []model.Bounty {
	out := make([]model.Bounty, 0, len(f.byID))
	for _, b := range f.byID {
		cp := *b
		cp.ListedUsers = append([]string{}, b.ListedUsers...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeBounties) ListPage(_ context.Context, page, limit int) ([]model.Bounty, error) {
	all := f.all()
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Bounty{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeBounties) CountAll(_ context.Context) (int, error) { return len(f.byID), nil }

func (f *fakeBounties) AddApplicant(_ context.Context, bountyID, userID string) error {
	b, ok := f.byID[bountyID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range b.ListedUsers {
		if id == userID {
			return fmt.Errorf("%w: already listed", repository.ErrConflict)
		}
	}
	b.ListedUsers = append(b.ListedUsers, userID)
	return nil
}

func (f *fakeBounties) Accept(_ context.Context, bountyID, userID string) error {
	b, ok := f.byID[bountyID]
	if !ok {
		return repository.ErrNotFound
	}
	if b.AcceptedID != "" {
		return fmt.Errorf("%w: already accepted", repository.ErrConflict)
	}
	b.AcceptedID = userID
	b.Status = model.BountyStatusAccepted
	return nil
}

func (f *fakeBounties) ByCreator(_ context.Context, userID string) ([]model.Bounty, error) {
	out := []model.Bounty{}
	for _, b := range f.all() {
		if b.CreatedBy == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBounties) ByApplicant(_ context.Context, userID string) ([]model.Bounty, error) {
	out := []model.Bounty{}
	for _, b := range f.all() {
		for _, id := range b.ListedUsers {
			if id == userID {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeBounties) ByAccepted(_ context.Context, userID string) ([]model.Bounty, error) {
	out := []model.Bounty{}
	for _, b := range f.all() {
		if b.AcceptedID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBounties) Filter(_ context.Context, crit repository.FilterCriteria) ([]model.Bounty, error) {
	out := []model.Bounty{}
	for _, b := range f.all() {
		if crit.Days > 0 && b.Days != strconv.Itoa(crit.Days) {
			continue
		}
		if crit.MinLoot > 0 {
			loot, err := strconv.Atoi(b.Loot)
			if err != nil || loot < crit.MinLoot {
				continue
			}
		}
		if len(crit.Keywords) > 0 {
			matched := false
			for _, kw := range crit.Keywords {
				kw = strings.TrimSpace(kw)
				if kw != "" && strings.Contains(strings.ToLower(b.Title), strings.ToLower(kw)) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// fakeSink records published events in order.
type fakeSink struct {
	events []queue.BountyEvent
}

func (f *fakeSink) Publish(ev queue.BountyEvent) { f.events = append(f.events, ev) }
