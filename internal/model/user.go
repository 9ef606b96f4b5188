package model

import "time"

// User is the unified account record, regardless of login origin. A user
// created by password registration carries a bcrypt hash; one created (or
// later linked) through Google carries the google_* fields. Both origins
// converge on the same row, keyed by email.
//
// A user counts as registered once Handle is non-empty; IsRegistered is
// kept in sync by UserRepo.SetRegistered rather than derived on read.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Handle       string
	Organization string
	Loot         string

	GoogleID     string
	GoogleToken  string
	IsGoogleUser bool

	IsRegistered bool
	IsSuspended  bool

	OTPCode      string
	OTPExpiresAt time.Time
	OTPVerified  bool

	AccessToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Operation is a free-form record a user attaches to their account:
// a resource URL plus a description, optionally a processed URL filled
// in later. Not validated beyond presence of the first two fields.
type Operation struct {
	ID           uint64    `json:"id"`
	UserID       string    `json:"userId"`
	ResourceURL  string    `json:"resourceUrl"`
	Description  string    `json:"description"`
	ProcessedURL string    `json:"processedUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
