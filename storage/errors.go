package storage

import "errors"

// Storage error constants
var (
	// ErrTodoNotFound is returned when no todo matches the requested id
	ErrTodoNotFound = errors.New("todo not found")

	// ErrDatabaseClosed is returned when attempting to use a closed database connection
	ErrDatabaseClosed = errors.New("database is closed")
)
