package store

import "errors"

var (
	// ErrNotANumber is returned by Increment and Decrement on non-numeric values.
	ErrNotANumber = errors.New("store.not_a_number")

	// ErrEmptyPath is returned for empty key paths or paths with empty segments.
	ErrEmptyPath = errors.New("store.empty_path")

	// ErrNotAnObject is returned by Set when the path runs through an array.
	ErrNotAnObject = errors.New("store.not_an_object")
)
