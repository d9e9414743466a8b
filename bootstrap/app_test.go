package bootstrap

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"todoapi/api"
	"todoapi/config"
	"todoapi/service"
	"todoapi/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newTestApp wires an App around the in-memory store, listening on a random port
func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sugar := logger.Sugar()

	cfg := &config.Config{}
	cfg.API.Port = 0
	cfg.API.JSONBodyLimit = 1048576
	cfg.API.ShutdownTimeout = 2 * time.Second

	svc := service.NewTodoService(storage.NewMockTodoStorage(), sugar)
	return &App{
		Config:      cfg,
		Logger:      logger,
		Sugar:       sugar,
		TodoService: svc,
		APIServer:   api.NewAPI(svc, nil, cfg, nil, sugar),
	}
}

func TestApp_StartServeShutdown(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.Start(context.Background()))
	require.NotNil(t, app.Addr())

	resp, err := http.Get("http://" + app.Addr().String() + "/todos")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	app.Shutdown()
	app.Shutdown()

	_, err = http.Get("http://" + app.Addr().String() + "/todos")
	assert.Error(t, err, "listener must be closed after shutdown")
}

func TestApp_StartWithoutAPI(t *testing.T) {
	app := &App{Config: &config.Config{}}
	assert.Error(t, app.Start(context.Background()))
	assert.Nil(t, app.Addr())
}

func TestApp_StartPortInUse(t *testing.T) {
	first := newTestApp(t)
	require.NoError(t, first.Start(context.Background()))
	defer first.Shutdown()

	second := newTestApp(t)
	_, port, err := net.SplitHostPort(first.Addr().String())
	require.NoError(t, err)
	second.Config.API.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	assert.Error(t, second.Start(context.Background()))
}

func TestNewApp_UnreachableStoreFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection timeout test in short mode")
	}

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv("MONGO_URL", "mongodb://127.0.0.1:1/todos")
	t.Setenv("TODOAPI_MONGODB_CONNECT_TIMEOUT", "300ms")
	t.Setenv("TODOAPI_TRACING_ENABLED", "false")

	app, err := NewApp(context.Background())
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestNewApp_MissingMongoURL(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv("MONGO_URL", "")
	t.Setenv("TODOAPI_MONGODB_URI", "")

	_, err = NewApp(context.Background())
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	sugar := zaptest.NewLogger(t).Sugar()

	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(t.TempDir()+"/.env", sugar))
	})

	t.Run("file values fill the environment", func(t *testing.T) {
		path := t.TempDir() + "/.env"
		require.NoError(t, os.WriteFile(path, []byte("TODOAPI_DOTENV_PROBE=from-file\n"), 0600))
		t.Setenv("TODOAPI_DOTENV_PROBE", "")
		require.NoError(t, os.Unsetenv("TODOAPI_DOTENV_PROBE"))

		require.NoError(t, LoadDotEnv(path, sugar))
		assert.Equal(t, "from-file", os.Getenv("TODOAPI_DOTENV_PROBE"))
	})

	t.Run("process environment wins", func(t *testing.T) {
		path := t.TempDir() + "/.env"
		require.NoError(t, os.WriteFile(path, []byte("TODOAPI_DOTENV_PROBE=from-file\n"), 0600))
		t.Setenv("TODOAPI_DOTENV_PROBE", "from-env")

		require.NoError(t, LoadDotEnv(path, sugar))
		assert.Equal(t, "from-env", os.Getenv("TODOAPI_DOTENV_PROBE"))
	})
}
