// Package apperr defines the sentinel errors shared across the service and
// transport layers, so HTTP and MCP handlers can map failures to status
// codes with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidParameter = errors.New("invalid parameter")
)
