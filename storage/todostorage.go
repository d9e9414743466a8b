package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoapi/core"
	"todoapi/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TodoCursor interface for mocking
type TodoCursor interface {
	All(ctx context.Context, results interface{}) error
	Close(ctx context.Context) error
}

// TodoSingleResult interface for mocking
type TodoSingleResult interface {
	Decode(v interface{}) error
}

// TodoCollection interface for mocking
type TodoCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (TodoCursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) TodoSingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// mongoTodoCollection adapts *mongo.Collection to TodoCollection
type mongoTodoCollection struct {
	*mongo.Collection
}

func (m *mongoTodoCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (TodoCursor, error) {
	cursor, err := m.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cursor, nil
}

func (m *mongoTodoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) TodoSingleResult {
	return m.Collection.FindOne(ctx, filter, opts...)
}

// TodoStorage handles todo persistence. Every call reaches MongoDB.
type TodoStorage struct {
	coll   TodoCollection
	tracer trace.Tracer
	logger *zap.SugaredLogger
}

// NewTodoStorage creates a todo storage bound to the named collection.
// A nil tracer disables spans.
func NewTodoStorage(db *MongoDB, collection string, tracer trace.Tracer, logger *zap.SugaredLogger) *TodoStorage {
	if collection == "" {
		collection = core.TodoCollectionName
	}
	return newTodoStorage(&mongoTodoCollection{Collection: db.Database.Collection(collection)}, tracer, logger)
}

func newTodoStorage(coll TodoCollection, tracer trace.Tracer, logger *zap.SugaredLogger) *TodoStorage {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TodoStorage{
		coll:   coll,
		tracer: tracer,
		logger: logger,
	}
}

// startOp opens a span for a collection operation and returns a finisher that
// records the outcome on the span and the storage histogram.
func (s *TodoStorage) startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("db.system", "mongodb"),
		attribute.String("db.operation", op),
	)
	ctx, span := s.tracer.Start(ctx, "todos."+op, trace.WithAttributes(attrs...))

	return ctx, func(errp *error) {
		status := "ok"
		if errp != nil && *errp != nil {
			if errors.Is(*errp, ErrTodoNotFound) {
				status = "not_found"
			} else {
				status = "error"
				span.RecordError(*errp)
				span.SetStatus(codes.Error, (*errp).Error())
			}
		}
		metrics.StorageOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// GetTodos retrieves every todo in the collection
func (s *TodoStorage) GetTodos(ctx context.Context) (todos []core.Todo, err error) {
	ctx, finish := s.startOp(ctx, "find")
	defer finish(&err)

	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find todos: %w", err)
	}
	defer cursor.Close(ctx)

	todos = make([]core.Todo, 0)
	if err = cursor.All(ctx, &todos); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	return todos, nil
}

// GetTodo retrieves a todo by ID
func (s *TodoStorage) GetTodo(ctx context.Context, id primitive.ObjectID) (todo *core.Todo, err error) {
	ctx, finish := s.startOp(ctx, "find_one", attribute.String("todo.id", id.Hex()))
	defer finish(&err)

	var found core.Todo
	if err = s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&found); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return &found, nil
}

// CreateTodo inserts a new todo and sets its ID
func (s *TodoStorage) CreateTodo(ctx context.Context, todo *core.Todo) (err error) {
	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}

	ctx, finish := s.startOp(ctx, "insert_one", attribute.String("todo.id", todo.ID.Hex()))
	defer finish(&err)

	if _, err = s.coll.InsertOne(ctx, todo); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	metrics.TodosCreated.Inc()
	return nil
}

// ReplaceTodo replaces the whole document stored under id
func (s *TodoStorage) ReplaceTodo(ctx context.Context, id primitive.ObjectID, todo *core.Todo) (err error) {
	ctx, finish := s.startOp(ctx, "replace_one", attribute.String("todo.id", id.Hex()))
	defer finish(&err)

	todo.ID = id
	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, todo)
	if err != nil {
		return fmt.Errorf("failed to replace todo: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// DeleteTodo deletes a todo by ID
func (s *TodoStorage) DeleteTodo(ctx context.Context, id primitive.ObjectID) (err error) {
	ctx, finish := s.startOp(ctx, "delete_one", attribute.String("todo.id", id.Hex()))
	defer finish(&err)

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrTodoNotFound
	}

	metrics.TodosDeleted.Inc()
	return nil
}

// Count returns the number of stored todos
func (s *TodoStorage) Count(ctx context.Context) (count int64, err error) {
	ctx, finish := s.startOp(ctx, "count")
	defer finish(&err)

	count, err = s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}

	return count, nil
}
