package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/patchlog/domain/record"
	"github.com/helixml/patchlog/internal/database"
)

// Sentinel errors matched with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrServer         = errors.New("server error")
)

// Response messages shared by the routers.
const (
	MsgUnauthorized   = "Unauthorized"
	MsgRecordNotFound = "Record not found"
	MsgInternal       = "Internal Server Error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// APIError carries an explicit status and client-facing message.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError reports a missing or invalid credential.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.reason
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// ServerError reports an upstream failure with a chosen status.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{statusCode: statusCode, message: message}
}

// StatusCode returns the HTTP status.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the client-facing message.
func (e *ServerError) Message() string { return e.message }

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Is matches ErrServer.
func (e *ServerError) Is(target error) bool { return target == ErrServer }

// WriteError maps err to a status and writes an ErrorResponse.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Message: MsgInternal, Error: err.Error()}

	var apiErr *APIError
	var serverErr *ServerError
	var validationErr *record.ValidationError

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		resp = ErrorResponse{Message: apiErr.Message()}
		if apiErr.cause != nil {
			resp.Error = apiErr.cause.Error()
		}
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		resp = ErrorResponse{Message: serverErr.Message()}
	case errors.Is(err, ErrAuthentication):
		status = http.StatusUnauthorized
		resp = ErrorResponse{Message: MsgUnauthorized}
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp = ErrorResponse{Message: validationErr.Error()}
	case errors.Is(err, record.ErrValidation):
		status = http.StatusBadRequest
		resp = ErrorResponse{Message: err.Error()}
	case errors.Is(err, record.ErrNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		resp = ErrorResponse{Message: MsgRecordNotFound}
	}

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			"correlation_id", GetCorrelationID(r.Context()),
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, resp)
}

// WriteMessage writes a {"message": ...} body.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
