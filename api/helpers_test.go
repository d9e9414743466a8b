package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"todoapi/config"
	"todoapi/core"
	"todoapi/service"
	"todoapi/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newTestConfig returns a config with rate limiting disabled
func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.API.Port = 8080
	cfg.API.JSONBodyLimit = 1048576
	cfg.API.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.MongoDB.URI = "mongodb://localhost:27017/test"
	cfg.MongoDB.Collection = core.TodoCollectionName
	return cfg
}

// setupTestAPI builds an API backed by the in-memory todo store
func setupTestAPI(t *testing.T) (*API, *storage.MockTodoStorage) {
	t.Helper()
	return setupTestAPIWithConfig(t, newTestConfig())
}

func setupTestAPIWithConfig(t *testing.T, cfg *config.Config) (*API, *storage.MockTodoStorage) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	store := storage.NewMockTodoStorage()
	api := NewAPI(service.NewTodoService(store, logger), nil, cfg, nil, logger)
	t.Cleanup(func() { _ = api.Stop(context.Background()) })
	return api, store
}

// doRequest sends a request through the full middleware chain
func doRequest(t *testing.T, api *API, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var msg MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg), "body: %s", rr.Body.String())
	return msg.Message
}

func decodeTodos(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var todos []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &todos), "body: %s", rr.Body.String())
	return todos
}

func decodeTodo(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var todo map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &todo), "body: %s", rr.Body.String())
	return todo
}

// createTodoForTest posts a todo and returns its id, read back from the list
func createTodoForTest(t *testing.T, api *API, body interface{}) string {
	t.Helper()
	before := decodeTodos(t, doRequest(t, api, http.MethodGet, "/todos", nil))

	rr := doRequest(t, api, http.MethodPost, "/todos", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	after := decodeTodos(t, doRequest(t, api, http.MethodGet, "/todos", nil))
	require.Len(t, after, len(before)+1)
	return after[len(after)-1]["id"].(string)
}
