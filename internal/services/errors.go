package services

import "errors"

// Sentinel errors for expected domain outcomes. Handlers match these with
// errors.Is; anything else is an internal failure.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserBlocked         = errors.New("user is blocked")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDeductionFailed     = errors.New("failed to deduct points")

	ErrCodeExists      = errors.New("code already exists")
	ErrCodeNotFound    = errors.New("code not found")
	ErrCodeExhausted   = errors.New("code has reached its usage limit")
	ErrCodeExpired     = errors.New("code has expired")
	ErrCodeAlreadyUsed = errors.New("code already used by this user")

	ErrAlreadyCheckedIn = errors.New("already checked in today")

	ErrAttemptNotFound = errors.New("verification attempt not found")
	ErrInvalidLink     = errors.New("invalid verification link")
	ErrUnknownService  = errors.New("unknown verification service")
)
