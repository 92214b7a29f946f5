package entity

import "errors"

// Domain errors for the scheduled post queue
var (
	// Validation errors
	ErrEmptyAccountID  = errors.New("account ID is required")
	ErrEmptyURL        = errors.New("listing URL is required")
	ErrInvalidPosition = errors.New("queue position must be positive")
	ErrNoURLs          = errors.New("at least one URL is required")

	// Business logic errors
	ErrPostNotFound = errors.New("scheduled post not found")

	// Pipeline errors
	ErrNoImagesFound     = errors.New("no images found on listing page")
	ErrSweepInProgress   = errors.New("a sweep is already processing this account")
	ErrMissingPageAccess = errors.New("account has no page credentials configured")
)
