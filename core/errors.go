package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed todo operation. Every HTTP status the API
// returns for a failure is chosen from this enumeration.
type ErrorKind int

const (
	// KindStorage covers connectivity loss and any other store failure
	KindStorage ErrorKind = iota
	// KindNotFound means no document matches the id, or the id is malformed
	KindNotFound
	// KindValidation means the request body is unusable or the title is missing
	KindValidation
)

// String returns the string representation
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "storage"
	}
}

// TodoError is the typed error returned by the todo service.
type TodoError struct {
	Kind    ErrorKind
	ID      string
	Message string
	Err     error
}

// Error implements error
func (e *TodoError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause
func (e *TodoError) Unwrap() error {
	return e.Err
}

// NotFoundError reports that no todo exists for id
func NotFoundError(id string, cause error) *TodoError {
	return &TodoError{
		Kind:    KindNotFound,
		ID:      id,
		Message: fmt.Sprintf("Todo (%s) not found", id),
		Err:     cause,
	}
}

// ValidationError reports an unusable request body
func ValidationError(message string, cause error) *TodoError {
	return &TodoError{
		Kind:    KindValidation,
		Message: message,
		Err:     cause,
	}
}

// StorageError wraps a store failure. The message is the underlying error text.
func StorageError(cause error) *TodoError {
	return &TodoError{
		Kind: KindStorage,
		Err:  cause,
	}
}

// KindOf extracts the error kind. Untyped errors are treated as storage failures.
func KindOf(err error) ErrorKind {
	var todoErr *TodoError
	if errors.As(err, &todoErr) {
		return todoErr.Kind
	}
	return KindStorage
}
