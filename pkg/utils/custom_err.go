package utils

import "errors"

var (
	// ErrExternalService covers every failure to obtain a usable completion
	// from the model backend (HTTP, timeout, network, empty content, both
	// models failed).
	ErrExternalService = errors.New("external service error")

	ErrInvalidTravelRequest  = errors.New("travel request not found")
	ErrIncompleteRequest     = errors.New("travel request is incomplete")
	ErrInvalidInput          = errors.New("invalid input")
	ErrAlternativesExhausted = errors.New("alternative recommendation limit reached")
	ErrConfiguration         = errors.New("configuration error")
	ErrDatabaseError         = errors.New("database error")
	ErrSessionStore          = errors.New("session store error")
	ErrAnalyticsDisabled     = errors.New("analytics storage is not configured")
)
