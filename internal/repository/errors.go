package repository

import "github.com/pkg/errors"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")

	// ErrReferenceNotFound is returned when a statement violates a foreign
	// key, i.e. a referenced member, department or cell does not exist.
	ErrReferenceNotFound = errors.New("referenced row not found")
)
