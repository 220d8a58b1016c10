package services

// Typed service errors. Handlers map these to API error responses in one
// place; nothing here is retried automatically.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// GenerationError covers report generation failures: missing credential,
// transport failure, or a malformed/contract-violating response.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string { return e.Message }
func (e *GenerationError) Unwrap() error { return e.Err }

// StreamError is a mid-stream failure on a chat turn. The session stays
// usable for further turns.
type StreamError struct {
	Message string
	Err     error
}

func (e *StreamError) Error() string { return e.Message }
func (e *StreamError) Unwrap() error { return e.Err }

// PersistenceError is a failed document-store write or read. In-memory state
// is never rolled back because of one.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }
func (e *PersistenceError) Unwrap() error { return e.Err }

// AuthRequiredError marks a save or history action attempted without a
// logged-in user.
type AuthRequiredError struct{ Message string }

func (e *AuthRequiredError) Error() string { return e.Message }

// SessionBusyError rejects a send while a model reply is still in flight.
type SessionBusyError struct{ Message string }

func (e *SessionBusyError) Error() string { return e.Message }
