package types

import "errors"

// Domain errors shared across the engine
var (
	// ErrValidation is returned for malformed queries or records
	ErrValidation = errors.New("validation failed")
	// ErrDimensionMismatch is returned when a vector's length does not match the index dimension
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrNotFound is returned when a module id is unknown
	ErrNotFound = errors.New("module not found")
	// ErrAlreadyExists is returned when registering a duplicate module id
	ErrAlreadyExists = errors.New("module already exists")
	// ErrInvalidStrategy is returned for an unrecognized assembly strategy
	ErrInvalidStrategy = errors.New("invalid assembly strategy")
)
