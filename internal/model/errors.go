package model

import "errors"

// Error taxonomy shared by the generator, the store and the session service.
// Callers test with errors.Is; the concrete cause is wrapped alongside.
var (
	// ErrValidation marks bad input, rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrGeneration marks a failed or unusable quiz generation.
	ErrGeneration = errors.New("quiz generation failed")
	// ErrPersistence marks a storage or transport failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound covers absent quizzes and quizzes the caller may not see.
	ErrNotFound = errors.New("not found")
)
