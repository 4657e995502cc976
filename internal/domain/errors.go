package domain

import "errors"

var (
	// ErrShowNotFound indicates the show content could not be loaded.
	ErrShowNotFound = errors.New("show not found")
	// ErrBadVersion is returned when a save request carries a negative or
	// otherwise unusable version number.
	ErrBadVersion = errors.New("invalid live document version")
)
