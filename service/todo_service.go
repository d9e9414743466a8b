package service

import (
	"context"
	"errors"
	"fmt"

	"todoapi/core"
	"todoapi/storage"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TodoServiceImpl implements the TodoService interface from core package.
// It sits between the HTTP handlers (and admin CLI) and the storage layer.
//
// RESPONSIBILITIES:
// - Validate request bodies (title is required on create and update)
// - Parse path ids into ObjectIDs; malformed ids never reach the store
// - Classify every failure into a core.ErrorKind
//
// Every call performs exactly one storage operation. There is no caching and
// no retry.
type TodoServiceImpl struct {
	todoStorage TodoStorage
	validate    *validator.Validate
	logger      *zap.SugaredLogger
}

// TodoStorage defines todo storage operations needed by service.
// Defined here (consumer package) following Interface Segregation Principle.
type TodoStorage interface {
	GetTodos(ctx context.Context) ([]core.Todo, error)
	GetTodo(ctx context.Context, id primitive.ObjectID) (*core.Todo, error)
	CreateTodo(ctx context.Context, todo *core.Todo) error
	ReplaceTodo(ctx context.Context, id primitive.ObjectID, todo *core.Todo) error
	DeleteTodo(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// NewTodoService creates a new TodoService instance.
//
// PARAMETERS:
//   - todoStorage: Todo persistence layer (required, panics if nil)
//   - logger: Structured logger (required, panics if nil)
func NewTodoService(todoStorage TodoStorage, logger *zap.SugaredLogger) *TodoServiceImpl {
	if todoStorage == nil {
		panic("todoStorage is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &TodoServiceImpl{
		todoStorage: todoStorage,
		validate:    validator.New(),
		logger:      logger,
	}
}

// ============================================================================
// TodoReader Implementation
// ============================================================================

// ListTodos returns every stored todo.
//
// ERRORS:
//   - KindStorage: the store could not be queried
func (s *TodoServiceImpl) ListTodos(ctx context.Context) ([]core.Todo, error) {
	todos, err := s.todoStorage.GetTodos(ctx)
	if err != nil {
		return nil, core.StorageError(fmt.Errorf("failed to list todos: %w", err))
	}
	if todos == nil {
		todos = []core.Todo{}
	}
	return todos, nil
}

// GetTodo retrieves a single todo.
//
// ERRORS:
//   - KindNotFound: id is malformed or no document matches
//   - KindStorage: the store could not be queried
func (s *TodoServiceImpl) GetTodo(ctx context.Context, id string) (*core.Todo, error) {
	oid, err := parseTodoID(id)
	if err != nil {
		return nil, err
	}

	todo, err := s.todoStorage.GetTodo(ctx, oid)
	if err != nil {
		return nil, classifyStorageError(id, err)
	}
	return todo, nil
}

// CountTodos returns the number of stored todos.
func (s *TodoServiceImpl) CountTodos(ctx context.Context) (int64, error) {
	count, err := s.todoStorage.Count(ctx)
	if err != nil {
		return 0, core.StorageError(fmt.Errorf("failed to count todos: %w", err))
	}
	return count, nil
}

// ============================================================================
// TodoWriter Implementation
// ============================================================================

// CreateTodo validates input and inserts a new todo. Done defaults to false.
//
// ERRORS:
//   - KindValidation: input is nil or title is missing
//   - KindStorage: the insert failed
func (s *TodoServiceImpl) CreateTodo(ctx context.Context, input *core.TodoInput) (*core.Todo, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	todo := input.ToTodo()
	if err := s.todoStorage.CreateTodo(ctx, todo); err != nil {
		return nil, core.StorageError(err)
	}

	s.logger.Infow("Todo created", "todo_id", todo.HexID())
	return todo, nil
}

// UpdateTodo replaces the stored document with the input.
// Omitted description is removed and omitted done becomes false.
//
// ERRORS:
//   - KindNotFound: id is malformed or no document matches
//   - KindValidation: input is nil or title is missing
//   - KindStorage: the replace failed
func (s *TodoServiceImpl) UpdateTodo(ctx context.Context, id string, input *core.TodoInput) error {
	oid, err := parseTodoID(id)
	if err != nil {
		return err
	}
	if err := s.validateInput(input); err != nil {
		return err
	}

	if err := s.todoStorage.ReplaceTodo(ctx, oid, input.ToTodo()); err != nil {
		return classifyStorageError(id, err)
	}

	s.logger.Infow("Todo updated", "todo_id", id)
	return nil
}

// DeleteTodo permanently deletes a todo.
//
// ERRORS:
//   - KindNotFound: id is malformed or nothing was deleted
//   - KindStorage: the delete failed
func (s *TodoServiceImpl) DeleteTodo(ctx context.Context, id string) error {
	oid, err := parseTodoID(id)
	if err != nil {
		return err
	}

	if err := s.todoStorage.DeleteTodo(ctx, oid); err != nil {
		return classifyStorageError(id, err)
	}

	s.logger.Infow("Todo deleted", "todo_id", id)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *TodoServiceImpl) validateInput(input *core.TodoInput) error {
	if input == nil {
		return core.ValidationError(missingTitleMessage, nil)
	}

	if err := s.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fe := range validationErrs {
				if fe.Field() == "Title" {
					return core.ValidationError(missingTitleMessage, err)
				}
			}
		}
		return core.ValidationError(fmt.Sprintf("todos validation failed: %v", err), err)
	}
	return nil
}

// missingTitleMessage is returned when the title is absent or empty
const missingTitleMessage = "todos validation failed: title: Path `title` is required."

func parseTodoID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, core.NotFoundError(id, err)
	}
	return oid, nil
}

func classifyStorageError(id string, err error) error {
	if errors.Is(err, storage.ErrTodoNotFound) {
		return core.NotFoundError(id, err)
	}
	return core.StorageError(err)
}

var _ core.TodoService = (*TodoServiceImpl)(nil)
