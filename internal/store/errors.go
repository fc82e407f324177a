package store

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("not found")

	// ErrLoginTaken is returned when inserting a user whose login
	// already exists.
	ErrLoginTaken = errors.New("login already taken")
)
