package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a user-scoped row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyAnswered is returned when an answer commit finds the question closed.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)
