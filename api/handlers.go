package api

import (
	"net/http"

	"todoapi/core"

	"github.com/gorilla/mux"
)

// MessageResponse is the body of every non-entity response
type MessageResponse struct {
	Message string `json:"message" example:"Todo Created Successfully"`
}

// TodoCreatedMessage is returned by a successful create
const TodoCreatedMessage = "Todo Created Successfully"

// getTodos godoc
//
//	@Summary		List todos
//	@Description	Returns every stored todo
//	@Tags			todos
//	@Produce		json
//	@Success		200	{array}		core.Todo
//	@Failure		500	{object}	MessageResponse	"Storage failure"
//	@Router			/todos [get]
func (a *API) getTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := a.todoService.ListTodos(r.Context())
	if err != nil {
		a.writeTodoError(w, r, err)
		return
	}
	a.respondJSON(w, todos, http.StatusOK)
}

// getTodo godoc
//
//	@Summary		Get todo
//	@Description	Get a todo by ID
//	@Tags			todos
//	@Produce		json
//	@Param			id	path		string	true	"Todo ID (24-char hex)"
//	@Success		200	{object}	core.Todo
//	@Failure		404	{object}	MessageResponse	"Todo not found"
//	@Failure		500	{object}	MessageResponse	"Storage failure"
//	@Router			/todos/{id} [get]
func (a *API) getTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	todo, err := a.todoService.GetTodo(r.Context(), id)
	if err != nil {
		a.writeTodoError(w, r, err)
		return
	}
	a.respondJSON(w, todo, http.StatusOK)
}

// createTodo godoc
//
//	@Summary		Create todo
//	@Description	Create a new todo. done defaults to false.
//	@Tags			todos
//	@Accept			json
//	@Produce		json
//	@Param			todo	body		core.TodoInput	true	"Todo object"
//	@Success		201		{object}	MessageResponse
//	@Failure		400		{object}	MessageResponse	"Invalid body or missing title"
//	@Failure		500		{object}	MessageResponse	"Storage failure"
//	@Router			/todos [post]
func (a *API) createTodo(w http.ResponseWriter, r *http.Request) {
	var input core.TodoInput
	if err := a.decodeJSONBodyWithLimit(w, r, &input, a.config.API.JSONBodyLimit); err != nil {
		return
	}

	todo, err := a.todoService.CreateTodo(r.Context(), &input)
	if err != nil {
		a.writeTodoError(w, r, err)
		return
	}

	LogWithRequestID(r.Context(), a.logger).Debugw("todo_created", "todo_id", todo.HexID())
	a.respondJSON(w, MessageResponse{Message: TodoCreatedMessage}, http.StatusCreated)
}

// updateTodo godoc
//
//	@Summary		Update todo
//	@Description	Replace a todo. Omitted description is removed and omitted done becomes false.
//	@Tags			todos
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string			true	"Todo ID (24-char hex)"
//	@Param			todo	body	core.TodoInput	true	"Todo object"
//	@Success		204
//	@Failure		400	{object}	MessageResponse	"Invalid body or missing title"
//	@Failure		404	{object}	MessageResponse	"Todo not found"
//	@Failure		500	{object}	MessageResponse	"Storage failure"
//	@Router			/todos/{id} [put]
func (a *API) updateTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input core.TodoInput
	if err := a.decodeJSONBodyWithLimit(w, r, &input, a.config.API.JSONBodyLimit); err != nil {
		return
	}

	if err := a.todoService.UpdateTodo(r.Context(), id, &input); err != nil {
		a.writeTodoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteTodo godoc
//
//	@Summary		Delete todo
//	@Description	Permanently delete a todo
//	@Tags			todos
//	@Produce		json
//	@Param			id	path	string	true	"Todo ID (24-char hex)"
//	@Success		204
//	@Failure		404	{object}	MessageResponse	"Todo not found"
//	@Failure		500	{object}	MessageResponse	"Storage failure"
//	@Router			/todos/{id} [delete]
func (a *API) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := a.todoService.DeleteTodo(r.Context(), id); err != nil {
		a.writeTodoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeTodoError maps a service error kind to its HTTP status
func (a *API) writeTodoError(w http.ResponseWriter, r *http.Request, err error) {
	switch core.KindOf(err) {
	case core.KindNotFound:
		a.writeMessage(w, http.StatusNotFound, err.Error())
	case core.KindValidation:
		a.writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		LogWithRequestID(r.Context(), a.logger).Errorw("Todo storage operation failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		a.writeMessage(w, http.StatusInternalServerError, sanitizeErrorMessage(err.Error()))
	}
}
