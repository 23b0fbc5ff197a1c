package models

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid profile state transition")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAlreadyUnlocked     = errors.New("profile already unlocked")
)
