package model

import "errors"

// Error taxonomy shared by repositories, services and handlers. Services wrap
// these with context via fmt.Errorf("...: %w", err); handlers select on them
// with errors.Is to pick a status code.
var (
	// ErrNotFound means an id did not resolve to a row
	ErrNotFound = errors.New("not found")

	// ErrInvalidID means an identifier is not a well-formed UUID
	ErrInvalidID = errors.New("invalid identifier")

	// ErrInvalidInput means a required field is missing or malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized means an ownership or credential check failed
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTagNotFound means a tag name does not resolve to a tag row
	ErrTagNotFound = errors.New("tag not found")

	// ErrDuplicateAssociation is a unique-pair violation on an association
	// insert. It is compensated inside the toggle services and never
	// surfaces to callers.
	ErrDuplicateAssociation = errors.New("duplicate association")
)
