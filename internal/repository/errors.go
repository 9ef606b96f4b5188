// Package repository persists users and bounties in MySQL. The sentinel
// errors below form the failure taxonomy shared with the service layer:
// handlers branch on them with errors.Is to pick a status code, so every
// repository and service method returns one of these (possibly wrapped)
// for an expected failure and a raw error only for store breakage.
package repository

import "errors"

// ErrInvalid is returned for malformed input or identifiers. Handlers
// translate it into HTTP 400.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound is returned when a referenced user or bounty is absent.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned on credential mismatch, including a login
// against an unknown email so callers cannot probe for accounts.
// Handlers translate it into HTTP 401 (403 for the OTP flow).
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict is returned on uniqueness violations (duplicate email or
// handle, duplicate application, second accept). Handlers translate it
// into HTTP 409.
var ErrConflict = errors.New("conflict")
