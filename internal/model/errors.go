package model

import "errors"

var (
	// Run related errors
	ErrRunNotFound = errors.New("audit run not found")

	// Inventory related errors
	ErrUnsupportedFormat = errors.New("unsupported inventory format")
	ErrSheetNotFound     = errors.New("worksheet not found")
	ErrColumnNotFound    = errors.New("inventory column not found")

	// Remote item related errors
	ErrItemNotFound = errors.New("remote item not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
