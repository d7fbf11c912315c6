package recordstore

import "errors"

var (
	// ErrNotFound is returned when a requested record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotSignedIn indicates no account is available to the store.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrRestricted indicates the account exists but may not use the store.
	ErrRestricted = errors.New("account restricted")

	// ErrTemporarilyUnavailable indicates a transient store outage; the
	// next sync pass should retry.
	ErrTemporarilyUnavailable = errors.New("store temporarily unavailable")
)
