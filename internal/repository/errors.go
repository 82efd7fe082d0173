package repository

import "errors"

// Taksonomi error dari storage layer. Handler memetakan error ini ke
// status code HTTP lewat errors.Is.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrImmutableTask = errors.New("default task is immutable")
	ErrConflict      = errors.New("task was modified concurrently")
)
