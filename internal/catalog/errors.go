package catalog

import "errors"

var (
	// ErrNotFound is returned when a service does not exist.
	ErrNotFound = errors.New("service not found")

	// ErrSlugTaken is returned when another service already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")
)
