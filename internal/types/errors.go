// internal/types/errors.go
package types

import "errors"

var (
	// ErrSessionNotFound is returned when a session id or phone number has no
	// matching (active) session. Expected under the TTL model when a session
	// expires concurrently with a request.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotResumable is returned when a session exists but is past its
	// resume grace window or in a state that never resumes.
	ErrNotResumable = errors.New("session not resumable")

	// ErrDuplicateSession signals a session id collision on create. With
	// UUID ids this should be unreachable; it is surfaced rather than
	// silently overwriting.
	ErrDuplicateSession = errors.New("duplicate session id")

	// ErrCacheMiss is returned by a SessionCache when the key is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrProfileNotFound is returned when no profile exists for a phone number.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when creating a profile for a phone number
	// that already has one.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)
