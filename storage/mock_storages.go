package storage

import (
	"context"
	"sort"
	"sync"

	"todoapi/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockTodoStorage is an in-memory todo store for testing.
// Setting Err makes every call fail with it.
type MockTodoStorage struct {
	mu    sync.RWMutex
	todos map[primitive.ObjectID]core.Todo
	Err   error
}

func NewMockTodoStorage() *MockTodoStorage {
	return &MockTodoStorage{
		todos: make(map[primitive.ObjectID]core.Todo),
	}
}

func (m *MockTodoStorage) GetTodos(ctx context.Context) ([]core.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	todos := make([]core.Todo, 0, len(m.todos))
	for _, todo := range m.todos {
		todos = append(todos, copyTodo(todo))
	}
	// ObjectIDs start with a timestamp, so this is insertion order
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].ID.Hex() < todos[j].ID.Hex()
	})
	return todos, nil
}

func (m *MockTodoStorage) GetTodo(ctx context.Context, id primitive.ObjectID) (*core.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	todo, ok := m.todos[id]
	if !ok {
		return nil, ErrTodoNotFound
	}
	found := copyTodo(todo)
	return &found, nil
}

func (m *MockTodoStorage) CreateTodo(ctx context.Context, todo *core.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}
	m.todos[todo.ID] = copyTodo(*todo)
	return nil
}

func (m *MockTodoStorage) ReplaceTodo(ctx context.Context, id primitive.ObjectID, todo *core.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, ok := m.todos[id]; !ok {
		return ErrTodoNotFound
	}
	todo.ID = id
	m.todos[id] = copyTodo(*todo)
	return nil
}

func (m *MockTodoStorage) DeleteTodo(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, ok := m.todos[id]; !ok {
		return ErrTodoNotFound
	}
	delete(m.todos, id)
	return nil
}

func (m *MockTodoStorage) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.todos)), nil
}

func copyTodo(todo core.Todo) core.Todo {
	if todo.Description != nil {
		desc := *todo.Description
		todo.Description = &desc
	}
	return todo
}
