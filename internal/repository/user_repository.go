package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/bountyboard/internal/model"
)

// UserRepo is the identity store. It owns the users and user_operations
// tables; token and OTP columns are only ever written through the
// methods here that the auth service calls.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id,email,password_hash,handle,organization,loot,
google_id,google_token,is_google_user,is_registered,is_suspended,
otp_code,otp_expires_at,otp_verified,access_token,created_at,updated_at`

// Create inserts a new user row. Duplicate email or handle surfaces as
// ErrConflict with a message naming the colliding field.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	var handle any
	if u.Handle != "" {
		handle = u.Handle
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id,email,password_hash,handle,organization,loot,
		 google_id,google_token,is_google_user,is_registered,is_suspended)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.PasswordHash, handle, u.Organization, defaultLoot(u.Loot),
		u.GoogleID, u.GoogleToken, u.IsGoogleUser, u.IsRegistered, u.IsSuspended)
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "uq_users_handle") {
				return fmt.Errorf("%w: handle already exists", ErrConflict)
			}
			return fmt.Errorf("%w: email already exists", ErrConflict)
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by email. Emails are stored as given at
// registration; lookups are exact.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdateAccessToken overwrites the single token slot for the user. There
// is no session list: the most recently issued token is the session of
// record.
func (r *UserRepo) UpdateAccessToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, "UPDATE users SET access_token=? WHERE id=?", token, id)
}

// LinkGoogle attaches federation identifiers to an existing account.
// Calling it again with the same profile is a harmless overwrite.
func (r *UserRepo) LinkGoogle(ctx context.Context, id, googleID, googleToken string) error {
	return r.exec(ctx,
		"UPDATE users SET google_id=?, google_token=?, is_google_user=1 WHERE id=?",
		googleID, googleToken, id)
}

// SetRegistered is the single writer of the registration flag.
func (r *UserRepo) SetRegistered(ctx context.Context, id string, registered bool) error {
	return r.exec(ctx, "UPDATE users SET is_registered=? WHERE id=?", registered, id)
}

// SetOTP stores a fresh one-time code, replacing any pending one and
// clearing the verified flag so an old verification cannot authorize a
// reset against the new code.
func (r *UserRepo) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	return r.exec(ctx,
		"UPDATE users SET otp_code=?, otp_expires_at=?, otp_verified=0 WHERE id=?",
		code, expiresAt, id)
}

// MarkOTPVerified records a successful code check. The code itself is
// left in place; the reset step re-checks the flag independently.
func (r *UserRepo) MarkOTPVerified(ctx context.Context, id string) error {
	return r.exec(ctx, "UPDATE users SET otp_verified=1 WHERE id=?", id)
}

// UpdatePassword replaces the stored hash and consumes the OTP state so
// the same code cannot authorize a second reset.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx,
		"UPDATE users SET password_hash=?, otp_code='', otp_expires_at=NULL, otp_verified=0 WHERE id=?",
		hash, id)
}

// AddOperation appends a user-submitted record and returns it with the
// generated id.
func (r *UserRepo) AddOperation(ctx context.Context, op *model.Operation) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_operations (user_id,resource_url,description,processed_url) VALUES (?,?,?,?)",
		op.UserID, op.ResourceURL, op.Description, op.ProcessedURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	op.ID = uint64(id)
	return nil
}

// OperationsByUser returns the user's records in insertion order.
func (r *UserRepo) OperationsByUser(ctx context.Context, userID string) ([]model.Operation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,resource_url,description,processed_url,created_at FROM user_operations WHERE user_id=? ORDER BY id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ops := []model.Operation{}
	for rows.Next() {
		var op model.Operation
		if err := rows.Scan(&op.ID, &op.UserID, &op.ResourceURL, &op.Description, &op.ProcessedURL, &op.CreatedAt); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// exec runs a statement that must touch an existing row; zero rows
// affected or matched-but-unchanged are both fine, a missing row is not
// distinguished here because callers resolve the user first.
func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u      model.User
		handle sql.NullString
		otpExp sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &handle, &u.Organization, &u.Loot,
		&u.GoogleID, &u.GoogleToken, &u.IsGoogleUser, &u.IsRegistered, &u.IsSuspended,
		&u.OTPCode, &otpExp, &u.OTPVerified, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Handle = handle.String
	if otpExp.Valid {
		u.OTPExpiresAt = otpExp.Time
	}
	return &u, nil
}

// isDuplicateKey reports whether the driver error is MySQL 1062.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

func defaultLoot(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
