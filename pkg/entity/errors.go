package entity

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when storing an entity without type or ID.
	ErrInvalidEntity = errors.New("entity type and id are required")
)
