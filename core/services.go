package core

import (
	"context"
)

// TodoReader provides read operations for todos.
// Consumers: API handlers (getTodos, getTodo), admin CLI
type TodoReader interface {
	// ListTodos returns every stored todo. Returns an empty slice when there are none.
	ListTodos(ctx context.Context) ([]Todo, error)

	// GetTodo retrieves a single todo. A malformed or unknown id yields KindNotFound.
	GetTodo(ctx context.Context, id string) (*Todo, error)

	// CountTodos returns the number of stored todos.
	CountTodos(ctx context.Context) (int64, error)
}

// TodoWriter provides write operations for todos.
// Consumers: API handlers (createTodo, updateTodo, deleteTodo), admin CLI
type TodoWriter interface {
	// CreateTodo validates and inserts a new todo, returning it with its generated ID.
	CreateTodo(ctx context.Context, input *TodoInput) (*Todo, error)

	// UpdateTodo replaces the whole document. Omitted optional fields are reset.
	UpdateTodo(ctx context.Context, id string, input *TodoInput) error

	// DeleteTodo permanently deletes a todo.
	DeleteTodo(ctx context.Context, id string) error
}

// TodoService combines read and write operations.
type TodoService interface {
	TodoReader
	TodoWriter
}
