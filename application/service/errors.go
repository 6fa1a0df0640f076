package service

import "errors"

var (
	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("patchlog: client is closed")

	// ErrInvalidJSON is returned when no JSON object can be recovered from
	// a model reply.
	ErrInvalidJSON = errors.New(MsgInvalidJSON)

	// ErrInvalidSchema is returned when a model reply lacks summary, tags or
	// analysis.
	ErrInvalidSchema = errors.New(MsgInvalidSchema)
)
