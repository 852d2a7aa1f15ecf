package service

import "errors"

// Sentinel errors for the auth service; the HTTP handler maps each to a status and business code.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUserBlocked          = errors.New("user is blocked")
	ErrUserNotFound         = errors.New("user does not exist")
	ErrRateLimited          = errors.New("too many verification code requests")
	ErrInvalidCredentials   = errors.New("invalid login credentials")
	ErrServiceUnavailable   = errors.New("service unavailable; try again later")
	ErrAlreadyAuthenticated = errors.New("caller must be anonymous")
	ErrUnauthenticated      = errors.New("caller is not authenticated")
	ErrInternal             = errors.New("internal error")
)
