package services

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentity  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidDuration    = errors.New("duration must be a positive number of minutes")
	ErrEmptyContent       = errors.New("content is required")
	ErrPostNotFound       = errors.New("post not found")
	ErrNoQuotesAvailable  = errors.New("no quotes available")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")

	// ErrStorageFailure wraps every error coming from the database. Its text
	// is for the logs only.
	ErrStorageFailure = errors.New("storage failure")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
