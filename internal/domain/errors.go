package domain

import "errors"

var (
	ErrInvalidOrder            = errors.New("invalid order")
	ErrIllegalTransition       = errors.New("illegal transition")
	ErrNotFound                = errors.New("not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrRateLimited             = errors.New("rate limited")
)
