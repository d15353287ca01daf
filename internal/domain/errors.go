package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict indicates the entity is still referenced by other records.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock is returned when checkout asks for more units than remain.
	ErrInsufficientStock = errors.New("insufficient stock")
)
