package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateThenList(t *testing.T) {
	api, _ := setupTestAPI(t)

	rr := doRequest(t, api, http.MethodPost, "/todos", map[string]interface{}{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Todo Created Successfully", decodeMessage(t, rr))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = doRequest(t, api, http.MethodGet, "/todos", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	todos := decodeTodos(t, rr)
	require.Len(t, todos, 1)
	assert.Equal(t, "Buy milk", todos[0]["title"])
	assert.Equal(t, false, todos[0]["done"])
	assert.Len(t, todos[0]["id"], 24)
	assert.NotContains(t, todos[0], "description")
}

func TestListEmpty(t *testing.T) {
	api, _ := setupTestAPI(t)

	for _, path := range []string{"/todos", "/todos/"} {
		rr := doRequest(t, api, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.JSONEq(t, "[]", rr.Body.String(), path)
	}
}

func TestCreateWithTrailingSlash(t *testing.T) {
	api, _ := setupTestAPI(t)

	rr := doRequest(t, api, http.MethodPost, "/todos/", map[string]interface{}{"title": "Walk dog"})
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreateWithoutTitle(t *testing.T) {
	api, _ := setupTestAPI(t)

	bodies := []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"title": ""},
		map[string]interface{}{"description": "no title", "done": true},
		"null",
	}

	for _, body := range bodies {
		rr := doRequest(t, api, http.MethodPost, "/todos", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "todos validation failed: title: Path `title` is required.", decodeMessage(t, rr))
	}

	rr := doRequest(t, api, http.MethodGet, "/todos", nil)
	assert.Empty(t, decodeTodos(t, rr))
}

func TestCreateInvalidBody(t *testing.T) {
	api, _ := setupTestAPI(t)

	tests := []struct {
		name    string
		body    interface{}
		status  int
		message string
	}{
		{"empty body", nil, http.StatusBadRequest, "Request body is required"},
		{"malformed json", `{"title":`, http.StatusBadRequest, "Invalid JSON body"},
		{"syntax error", `{"title" "x"}`, http.StatusBadRequest, "Invalid JSON syntax"},
		{"wrong type", `{"title": 42}`, http.StatusBadRequest, "Invalid type for field 'title'"},
		{"too large", `{"title":"` + strings.Repeat("a", 1048576) + `"}`, http.StatusRequestEntityTooLarge, "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, api, http.MethodPost, "/todos", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, decodeMessage(t, rr), tt.message)
		})
	}
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	api, _ := setupTestAPI(t)

	id := createTodoForTest(t, api, map[string]interface{}{"title": "Buy milk", "description": "Two liters"})

	rr := doRequest(t, api, http.MethodGet, "/todos/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":"`+id+`","title":"Buy milk","description":"Two liters","done":false}`, rr.Body.String())
}

func TestCreateKeepsEmptyDescription(t *testing.T) {
	api, _ := setupTestAPI(t)

	id := createTodoForTest(t, api, map[string]interface{}{"title": "Buy milk", "description": "", "done": true})

	todo := decodeTodo(t, doRequest(t, api, http.MethodGet, "/todos/"+id, nil))
	assert.Equal(t, "", todo["description"])
	assert.Equal(t, true, todo["done"])
}

func TestGetUnknownID(t *testing.T) {
	api, _ := setupTestAPI(t)
	id := primitive.NewObjectID().Hex()

	rr := doRequest(t, api, http.MethodGet, "/todos/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Todo ("+id+") not found", decodeMessage(t, rr))
}

func TestGetMalformedID(t *testing.T) {
	api, _ := setupTestAPI(t)

	rr := doRequest(t, api, http.MethodGet, "/todos/not-an-id", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Todo (not-an-id) not found", decodeMessage(t, rr))
}

func TestUpdateDoneThenGet(t *testing.T) {
	api, _ := setupTestAPI(t)
	id := createTodoForTest(t, api, map[string]interface{}{"title": "Buy milk", "description": "Two liters"})

	rr := doRequest(t, api, http.MethodPut, "/todos/"+id, map[string]interface{}{"title": "Buy milk", "done": true})
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	todo := decodeTodo(t, doRequest(t, api, http.MethodGet, "/todos/"+id, nil))
	assert.Equal(t, true, todo["done"])
	// full replace: the omitted description is gone
	assert.NotContains(t, todo, "description")
}

func TestUpdateErrors(t *testing.T) {
	api, _ := setupTestAPI(t)
	id := createTodoForTest(t, api, map[string]interface{}{"title": "Buy milk"})
	unknown := primitive.NewObjectID().Hex()

	rr := doRequest(t, api, http.MethodPut, "/todos/"+unknown, map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Todo ("+unknown+") not found", decodeMessage(t, rr))

	rr = doRequest(t, api, http.MethodPut, "/todos/bogus", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, api, http.MethodPut, "/todos/"+id, map[string]interface{}{"done": true})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, api, http.MethodPut, "/todos/"+id, "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// the stored todo is untouched
	todo := decodeTodo(t, doRequest(t, api, http.MethodGet, "/todos/"+id, nil))
	assert.Equal(t, "Buy milk", todo["title"])
	assert.Equal(t, false, todo["done"])
}

func TestDeleteThenGet(t *testing.T) {
	api, _ := setupTestAPI(t)
	id := createTodoForTest(t, api, map[string]interface{}{"title": "Buy milk"})

	rr := doRequest(t, api, http.MethodDelete, "/todos/"+id, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = doRequest(t, api, http.MethodGet, "/todos/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteNonExistentTwice(t *testing.T) {
	api, _ := setupTestAPI(t)
	id := primitive.NewObjectID().Hex()

	for i := 0; i < 2; i++ {
		rr := doRequest(t, api, http.MethodDelete, "/todos/"+id, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Todo ("+id+") not found", decodeMessage(t, rr))
	}
}

func TestStorageFailureReturns500(t *testing.T) {
	api, store := setupTestAPI(t)
	id := createTodoForTest(t, api, map[string]interface{}{"title": "Buy milk"})

	store.Err = errors.New("server selection error: mongodb://admin:hunter2@db:27017 unreachable")

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/todos", nil},
		{http.MethodGet, "/todos/" + id, nil},
		{http.MethodPost, "/todos", map[string]interface{}{"title": "x"}},
		{http.MethodPut, "/todos/" + id, map[string]interface{}{"title": "x"}},
		{http.MethodDelete, "/todos/" + id, nil},
	}

	for _, req := range requests {
		rr := doRequest(t, api, req.method, req.path, req.body)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, "%s %s", req.method, req.path)
		msg := decodeMessage(t, rr)
		assert.Contains(t, msg, "server selection error")
		assert.NotContains(t, msg, "hunter2")
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	api, _ := setupTestAPI(t)

	rr := doRequest(t, api, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Cannot GET /nope", decodeMessage(t, rr))

	rr = doRequest(t, api, http.MethodPatch, "/todos", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
