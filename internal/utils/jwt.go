package utils // package utils provides helpers for token creation, hashing and codes

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 bearer token with its expiry. It is
// long-lived (30 days by default) and there is exactly one live token
// per user: issuing a new one overwrites the previous slot in the
// identity store, so there is no revocation list to consult.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs a JWT for the user. Claims are the subject (the
// user id), the user's email, expiry and issued-at.
func NewAccessToken(secret, userID, email string, ttlDays int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
