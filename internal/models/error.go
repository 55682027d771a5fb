package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrBadRequest = errors.New("bad request")

	// Session lifecycle errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Console state errors
	ErrNoDialogOpen     = errors.New("no dialog session open")
	ErrDialogReadOnly   = errors.New("dialog is read-only")
	ErrNoDeletePending  = errors.New("no delete confirmation pending")
	ErrDeleteInFlight   = errors.New("delete request already in flight")
	ErrSubmitInFlight   = errors.New("submission already in flight")
	ErrValidationFailed = errors.New("validation failed")
)
