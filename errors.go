package patchlog

import (
	"errors"

	"github.com/helixml/patchlog/application/service"
	"github.com/helixml/patchlog/domain/record"
)

// Exported errors for library consumers.
var (
	// ErrNotFound indicates a requested record was not found.
	ErrNotFound = record.ErrNotFound

	// ErrValidation indicates a validation error.
	ErrValidation = record.ErrValidation

	// ErrNoDatabase indicates no database was configured.
	ErrNoDatabase = errors.New("patchlog: no database configured")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = service.ErrClientClosed
)
