package auth

import "errors"

var (
	// ErrKeyNotFound is returned when an API key does not resolve to a record
	ErrKeyNotFound = errors.New("API key not found")

	// ErrKeyRevoked is returned when an API key exists but has been revoked
	ErrKeyRevoked = errors.New("API key has been revoked")

	// ErrInvalidSession is returned when a session token fails verification
	ErrInvalidSession = errors.New("invalid session token")
)
