package core

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TodoCollectionName is the MongoDB collection holding todo documents.
const TodoCollectionName = "todos"

// Todo represents a persisted todo item
type Todo struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty" swaggertype:"string" example:"6650c0f3a1b2c3d4e5f60718"`
	Title       string             `json:"title" bson:"title" example:"Buy milk"`
	Description *string            `json:"description,omitempty" bson:"description,omitempty" example:"Two liters, semi-skimmed"`
	Done        bool               `json:"done" bson:"done" example:"false"`
}

// TodoInput is the request body accepted by create and update.
// Description and Done are pointers so that an absent value can be told apart
// from an empty string or false.
type TodoInput struct {
	Title       string  `json:"title" validate:"required" example:"Buy milk"`
	Description *string `json:"description,omitempty" example:"Two liters, semi-skimmed"`
	Done        *bool   `json:"done,omitempty" example:"false"`
}

// ToTodo builds the document to persist. Done defaults to false.
func (in *TodoInput) ToTodo() *Todo {
	todo := &Todo{
		Title: in.Title,
	}
	if in.Description != nil {
		desc := *in.Description
		todo.Description = &desc
	}
	if in.Done != nil {
		todo.Done = *in.Done
	}
	return todo
}

// HexID returns the identifier in its 24-character hex form
func (t *Todo) HexID() string {
	if t.ID.IsZero() {
		return ""
	}
	return t.ID.Hex()
}
