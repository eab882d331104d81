package domain

import "errors"

var (
	// ErrInvalidInput is returned when caller-supplied parameters fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSimulationFailed is returned when the simulation endpoint cannot be
	// reached or answers with a non-success status.
	ErrSimulationFailed = errors.New("simulation failed")

	// ErrSearchFailed is returned when the NEO search or detail endpoint cannot
	// be reached or answers with a non-success status.
	ErrSearchFailed = errors.New("search failed")

	// ErrMalformedResponse is returned when an upstream body cannot be decoded
	// or does not satisfy the declared result schema.
	ErrMalformedResponse = errors.New("malformed response")
)
