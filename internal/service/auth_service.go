// Package service holds the two engines behind the HTTP surface: the
// credential/session manager (this file) and the bounty lifecycle
// engine. Both depend on store interfaces rather than the concrete
// repositories so they can be exercised with fakes in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/bountyboard/internal/mail"
	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/repository"
	"github.com/openclaw/bountyboard/internal/utils"
)

// UserStore is the subset of the user repository the services need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateAccessToken(ctx context.Context, id, token string) error
	LinkGoogle(ctx context.Context, id, googleID, googleToken string) error
	SetRegistered(ctx context.Context, id string, registered bool) error
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	MarkOTPVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	AddOperation(ctx context.Context, op *model.Operation) error
	OperationsByUser(ctx context.Context, userID string) ([]model.Operation, error)
}

// GoogleProfile is what the federated handshake asserts about a user:
// an email and display name, never a password. PreRegistered carries
// the out-of-band registration intent; without it a redirect completion
// for an unknown email does not create an account.
type GoogleProfile struct {
	Email         string
	Name          string
	GoogleID      string
	Token         string
	PreRegistered bool
}

// Session is the result of a successful login or registration.
type Session struct {
	Token  string `json:"accessToken"`
	UserID string `json:"userId"`
}

// AuthService unifies dual-origin identities, issues and persists
// bearer tokens and runs the one-time-code reset flow. It is the sole
// writer of token and OTP fields on the user store.
type AuthService struct {
	users        UserStore
	mailer       mail.Sender
	jwtSecret    string
	tokenTTLDays int
	bcryptCost   int
	otpTTL       time.Duration

	now func() time.Time // injectable clock for the OTP expiry tests
}

func NewAuthService(users UserStore, mailer mail.Sender, jwtSecret string, tokenTTLDays, bcryptCost, otpTTLMin int) *AuthService {
	return &AuthService{
		users:        users,
		mailer:       mailer,
		jwtSecret:    jwtSecret,
		tokenTTLDays: tokenTTLDays,
		bcryptCost:   bcryptCost,
		otpTTL:       time.Duration(otpTTLMin) * time.Minute,
		now:          time.Now,
	}
}

// Register creates a password-origin user with a provisional handle and
// returns a fresh session. Email, password and handle are required;
// collisions on email or handle surface as ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, password, handle, organization string) (*Session, error) {
	if email == "" || password == "" || handle == "" {
		return nil, fmt.Errorf("%w: email, password and handle are required", repository.ErrInvalid)
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Handle:       handle,
		Organization: organization,
		IsRegistered: true, // handle is set at creation
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.Login(ctx, u)
}

// ValidatePassword looks the user up by email and checks the password.
// A missing account and a wrong password are indistinguishable to the
// caller; both come back as ErrUnauthorized.
func (s *AuthService) ValidatePassword(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, repository.ErrUnauthorized
	}
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, repository.ErrUnauthorized
	}
	return u, nil
}

// Login issues a new access token, persists it as the user's single
// token slot and returns the session.
func (s *AuthService) Login(ctx context.Context, u *model.User) (*Session, error) {
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateAccessToken(ctx, u.ID, tok.Token); err != nil {
		return nil, err
	}
	u.AccessToken = tok.Token
	return &Session{Token: tok.Token, UserID: u.ID}, nil
}

// IssueToken signs a fresh bearer token for the user without persisting it.
func (s *AuthService) IssueToken(u *model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(s.jwtSecret, u.ID, u.Email, s.tokenTTLDays)
}

// FindByEmail is a branching lookup: it returns (nil, nil) when no user
// exists rather than an error, because the federated flow treats
// absence as "maybe create" and not as a failure.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID resolves a user by id.
func (s *AuthService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty user id", repository.ErrInvalid)
	}
	return s.users.GetByID(ctx, id)
}

// LinkGoogleAccount attaches the federated identifiers to an existing
// account matched by email, then brings the registration flag in line
// with the handle. Safe to call on every redirect completion.
func (s *AuthService) LinkGoogleAccount(ctx context.Context, u *model.User, p GoogleProfile) error {
	if err := s.users.LinkGoogle(ctx, u.ID, p.GoogleID, p.Token); err != nil {
		return err
	}
	u.GoogleID = p.GoogleID
	u.GoogleToken = p.Token
	u.IsGoogleUser = true
	if u.Handle != "" && !u.IsRegistered {
		if err := s.users.SetRegistered(ctx, u.ID, true); err != nil {
			return err
		}
		u.IsRegistered = true
	}
	return nil
}

// CreateGoogleUser creates a federation-only account from the asserted
// profile. Callers must have checked the profile's pre-registration
// flag first; this method does not gate on it.
func (s *AuthService) CreateGoogleUser(ctx context.Context, p GoogleProfile) (*model.User, error) {
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        p.Email,
		GoogleID:     p.GoogleID,
		GoogleToken:  p.Token,
		IsGoogleUser: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateOTP generates a 6-digit code with an expiry and stores it on
// the user, replacing any pending code. The code is returned so the
// caller can hand it to the mail collaborator.
func (s *AuthService) CreateOTP(ctx context.Context, u *model.User) (string, error) {
	code, err := utils.NumericCode(6)
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.otpTTL)
	if err := s.users.SetOTP(ctx, u.ID, code, expires); err != nil {
		return "", err
	}
	return code, nil
}

// SendOTP delegates delivery to the mail collaborator. A delivery
// failure is surfaced once, never retried here.
func (s *AuthService) SendOTP(email, code string) error {
	return s.mailer.SendOTP(email, code)
}

// VerifyOTP succeeds iff a pending code exists for the email, matches
// exactly and has not expired. On success the verified flag is set but
// the code is kept; the reset step re-checks independently.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.OTPCode == "" || u.OTPCode != code {
		return fmt.Errorf("%w: invalid code", repository.ErrUnauthorized)
	}
	if !s.now().Before(u.OTPExpiresAt) {
		return fmt.Errorf("%w: code expired", repository.ErrUnauthorized)
	}
	return s.users.MarkOTPVerified(ctx, u.ID)
}

// ResetPassword replaces the password hash, provided a prior VerifyOTP
// succeeded for this email. Consumes the OTP state.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password required", repository.ErrInvalid)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.OTPVerified || u.OTPCode == "" {
		return fmt.Errorf("%w: code not verified", repository.ErrInvalid)
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// AddOperation appends a user-submitted record and returns the full
// updated list.
func (s *AuthService) AddOperation(ctx context.Context, userID, resourceURL, description, processedURL string) ([]model.Operation, error) {
	if resourceURL == "" || description == "" {
		return nil, fmt.Errorf("%w: resourceUrl and description are required", repository.ErrInvalid)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	op := &model.Operation{UserID: userID, ResourceURL: resourceURL, Description: description, ProcessedURL: processedURL}
	if err := s.users.AddOperation(ctx, op); err != nil {
		return nil, err
	}
	return s.users.OperationsByUser(ctx, userID)
}
