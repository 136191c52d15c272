package models

import "errors"

// Expected outcomes of the tournament and user flows. Everything not listed
// here is treated as an unexpected store failure and surfaced as a 500.
var (
	// Tournament errors
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyRegistered  = errors.New("already registered for this tournament")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidStatus      = errors.New("invalid status")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
