package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/openclaw/bountyboard/internal/model"
)

// BountyRepo is the bounty store. Applicants live in their own table so
// that applying is a conditional insert and accepting is a conditional
// update; neither needs a read-modify-write cycle that could race with a
// concurrent caller.
type BountyRepo struct{ DB *sql.DB }

func NewBountyRepo(db *sql.DB) *BountyRepo { return &BountyRepo{DB: db} }

// FilterCriteria narrows the bounty search. Zero values mean "not set".
type FilterCriteria struct {
	Days     int      // exact match on days when > 0
	MinLoot  int      // minimum loot when > 0
	Keywords []string // case-insensitive substring match against title, any may match
}

const bountyColumns = `id,created_by,title,details,reference_link,loot,days,status,accepted_id,is_suspended,created_at`

// Create inserts a new bounty row.
func (r *BountyRepo) Create(ctx context.Context, b *model.Bounty) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO bounties (id,created_by,title,details,reference_link,loot,days,status,accepted_id,is_suspended,created_at)
		 VALUES (?,?,?,?,?,?,?,?,NULL,?,?)`,
		b.ID, b.CreatedBy, b.Title, b.Details, b.ReferenceLink, b.Loot, b.Days,
		b.Status, b.IsSuspended, b.CreatedAt)
	return err
}

// GetByID fetches a bounty with its applicant list.
func (r *BountyRepo) GetByID(ctx context.Context, id string) (*model.Bounty, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties WHERE id=? LIMIT 1", id)
	b, err := scanBounty(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadApplicants(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListPage returns one page of bounties ordered newest first, without
// any visibility filtering; that is the engine's job.
func (r *BountyRepo) ListPage(ctx context.Context, page, limit int) ([]model.Bounty, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// CountAll returns the unfiltered bounty count.
func (r *BountyRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bounties").Scan(&n)
	return n, err
}

// AddApplicant appends the user to the bounty's applicant set. The
// composite primary key turns a duplicate application into ErrConflict
// without a prior membership read.
func (r *BountyRepo) AddApplicant(ctx context.Context, bountyID, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO bounty_applicants (bounty_id,user_id) VALUES (?,?)",
		bountyID, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: user %s already listed for bounty %s", ErrConflict, userID, bountyID)
		}
		return err
	}
	return nil
}

// HasApplicant reports whether the user is in the bounty's applicant set.
func (r *BountyRepo) HasApplicant(ctx context.Context, bountyID, userID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM bounty_applicants WHERE bounty_id=? AND user_id=? LIMIT 1",
		bountyID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Accept marks the applicant as accepted iff no one has been accepted
// yet. The WHERE accepted_id IS NULL guard makes a second accept lose
// deterministically with ErrConflict instead of last-write-wins.
func (r *BountyRepo) Accept(ctx context.Context, bountyID, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bounties SET accepted_id=?, status=? WHERE id=? AND accepted_id IS NULL",
		userID, model.BountyStatusAccepted, bountyID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: bounty %s already accepted", ErrConflict, bountyID)
	}
	return nil
}

// ByCreator returns bounties created by the user, newest first.
func (r *BountyRepo) ByCreator(ctx context.Context, userID string) ([]model.Bounty, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties WHERE created_by=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ByApplicant returns bounties the user has applied to.
func (r *BountyRepo) ByApplicant(ctx context.Context, userID string) ([]model.Bounty, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+prefixedBountyColumns+` FROM bounties b
		 JOIN bounty_applicants a ON a.bounty_id = b.id
		 WHERE a.user_id=? ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ByAccepted returns bounties where the user is the accepted applicant.
func (r *BountyRepo) ByAccepted(ctx context.Context, userID string) ([]model.Bounty, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties WHERE accepted_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// Filter returns bounties matching the criteria, newest first. Keyword
// matching is a case-insensitive LIKE against the title; any keyword in
// the list may match.
func (r *BountyRepo) Filter(ctx context.Context, crit FilterCriteria) ([]model.Bounty, error) {
	where := []string{"1=1"}
	args := []any{}
	if crit.Days > 0 {
		where = append(where, "days = ?")
		args = append(args, strconv.Itoa(crit.Days))
	}
	if crit.MinLoot > 0 {
		where = append(where, "CAST(loot AS UNSIGNED) >= ?")
		args = append(args, crit.MinLoot)
	}
	if len(crit.Keywords) > 0 {
		likes := make([]string, 0, len(crit.Keywords))
		for _, kw := range crit.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			likes = append(likes, "LOWER(title) LIKE ?")
			args = append(args, "%"+strings.ToLower(kw)+"%")
		}
		if len(likes) > 0 {
			where = append(where, "("+strings.Join(likes, " OR ")+")")
		}
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bountyColumns+" FROM bounties WHERE "+strings.Join(where, " AND ")+" ORDER BY created_at DESC",
		args...)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

var prefixedBountyColumns = "b." + strings.Join(strings.Split(bountyColumns, ","), ",b.")

// collect scans all rows and loads each bounty's applicant list.
func (r *BountyRepo) collect(ctx context.Context, rows *sql.Rows) ([]model.Bounty, error) {
	defer rows.Close()
	out := []model.Bounty{}
	for rows.Next() {
		b, err := scanBounty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadApplicants(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *BountyRepo) loadApplicants(ctx context.Context, b *model.Bounty) error {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id FROM bounty_applicants WHERE bounty_id=? ORDER BY applied_at, user_id",
		b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	b.ListedUsers = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		b.ListedUsers = append(b.ListedUsers, id)
	}
	return rows.Err()
}

func scanBounty(row rowScanner) (*model.Bounty, error) {
	var (
		b        model.Bounty
		accepted sql.NullString
	)
	err := row.Scan(&b.ID, &b.CreatedBy, &b.Title, &b.Details, &b.ReferenceLink,
		&b.Loot, &b.Days, &b.Status, &accepted, &b.IsSuspended, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.AcceptedID = accepted.String
	return &b, nil
}
