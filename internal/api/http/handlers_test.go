package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkedar7/cowork-dash/backend/internal/api/middleware"
	"github.com/dkedar7/cowork-dash/backend/internal/domain/service"
	"github.com/dkedar7/cowork-dash/backend/internal/domain/session"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/monitoring"
	"github.com/dkedar7/cowork-dash/backend/internal/providers/filesystem"
	"github.com/dkedar7/cowork-dash/backend/internal/providers/shell"
	"github.com/dkedar7/cowork-dash/backend/internal/sandbox"
)

// echoBackend records the command into out.txt inside the mirror and
// echoes it on stdout.
type echoBackend struct{}

func (echoBackend) Kind() sandbox.Kind { return sandbox.KindNamespace }

func (echoBackend) Run(_ context.Context, req sandbox.Request) (*sandbox.Output, error) {
	if err := os.WriteFile(filepath.Join(req.Dir, "out.txt"), []byte(req.Command), 0o644); err != nil {
		return nil, err
	}
	if strings.HasPrefix(req.Command, "fail") {
		return &sandbox.Output{Stderr: "failed\n", ExitCode: 2}, nil
	}
	return &sandbox.Output{Stdout: "ran: " + req.Command + "\n"}, nil
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNop()
	sessions := session.NewManager()
	executors := sandbox.NewRegistry(sandbox.WithBackend(echoBackend{}), sandbox.WithBaseDir(t.TempDir()))
	t.Cleanup(executors.CleanupAll)
	sessions.OnDelete(executors.CleanupSession)

	metrics := monitoring.NewMetrics()
	services := service.NewRegistry(log)
	services.SetObserver(metrics)
	require.NoError(t, services.Register(filesystem.NewProvider(sessions)))
	require.NoError(t, services.Register(shell.NewProvider(sessions, executors)))

	router := gin.New()
	router.Use(middleware.RequestID(), monitoring.Middleware(metrics))
	RegisterRoutes(router, NewHandlers(sessions, services, executors, metrics, log), metrics.Handler())

	return &testServer{router: router, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decode(t, w)["status"])

	w = s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	sb := body["sandbox"].(map[string]interface{})
	assert.Equal(t, "bubblewrap", sb["backend"])
	assert.Equal(t, true, sb["available"])
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/sessions", map[string]string{"id": "alpha"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "alpha", decode(t, w)["id"])

	w = s.do(t, http.MethodPost, "/sessions", map[string]string{"id": "alpha"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/sessions", map[string]string{"id": "a/b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	generated := decode(t, w)["id"].(string)
	assert.True(t, strings.HasPrefix(generated, "sess_"))

	w = s.do(t, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sessions"], 2)

	w = s.do(t, http.MethodGet, "/sessions/alpha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(0), body["files"])
	assert.NotContains(t, body, "executor")

	w = s.do(t, http.MethodDelete, "/sessions/alpha", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.sessions.Exists("alpha"))

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/sessions/alpha", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/sessions/alpha", nil).Code)
}

func TestFileRoundTrip(t *testing.T) {
	s := newTestServer(t)
	_, err := s.sessions.CreateSession("files")
	require.NoError(t, err)

	w := s.do(t, http.MethodPut, "/sessions/files/files/docs/readme.md", map[string]string{"content": "# Hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/workspace/docs/readme.md", decode(t, w)["path"])

	w = s.do(t, http.MethodGet, "/sessions/files/files/docs/readme.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Hi", w.Body.String())
	assert.Equal(t, "text/markdown", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "readme.md")

	w = s.do(t, http.MethodGet, "/sessions/files/files/docs/readme.md?view=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w)
	assert.Equal(t, "# Hi", view["content"])
	assert.Equal(t, true, view["is_text"])

	w = s.do(t, http.MethodPut, "/sessions/files/files/bin/blob", map[string]string{"content": "AAEC", "encoding": "base64"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["size"])

	w = s.do(t, http.MethodPut, "/sessions/files/files/bad", map[string]string{"content": "!!", "encoding": "base64"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/sessions/files/files/bad", map[string]string{"content": "x", "encoding": "utf-16"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/sessions/files/files/missing.txt", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/sessions/nope/files/readme.md", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/sessions/files/files/docs?view=true", nil).Code)
}

func TestTree(t *testing.T) {
	s := newTestServer(t)
	_, err := s.sessions.CreateSession("tree")
	require.NoError(t, err)
	fs, _ := s.sessions.GetFilesystem("tree")
	require.NoError(t, fs.WriteText("/workspace/src/main.py", "print(1)"))
	require.NoError(t, fs.WriteText("/workspace/notes.txt", "n"))

	w := s.do(t, http.MethodGet, "/sessions/tree/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]interface{})
	require.Len(t, items, 2)
	src := items[0].(map[string]interface{})
	assert.Equal(t, "src", src["name"])
	assert.Len(t, src["children"], 1)

	w = s.do(t, http.MethodGet, "/sessions/tree/tree?lazy=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	src = decode(t, w)["items"].([]interface{})[0].(map[string]interface{})
	assert.Empty(t, src["children"])
	assert.Equal(t, true, src["has_children"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/sessions/tree/tree?path=nowhere", nil).Code)
}

func TestExec(t *testing.T) {
	s := newTestServer(t)
	_, err := s.sessions.CreateSession("exec")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/sessions/exec/exec", map[string]interface{}{"command": "echo hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "ran: echo hi\n", result["stdout"])
	assert.Equal(t, float64(0), result["return_code"])

	fs, _ := s.sessions.GetFilesystem("exec")
	out, err := fs.ReadText("/workspace/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "echo hi", out)

	w = s.do(t, http.MethodPost, "/sessions/exec/exec", map[string]interface{}{"command": "fail now"})
	require.Equal(t, http.StatusOK, w.Code)
	result = decode(t, w)
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, float64(2), result["return_code"])

	w = s.do(t, http.MethodGet, "/sessions/exec", nil)
	stats := decode(t, w)["executor"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["runs"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/sessions/exec/exec", map[string]interface{}{"command": "  "}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/sessions/exec/exec", map[string]interface{}{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/sessions/exec/exec",
		map[string]interface{}{"command": "ls", "env": map[string]string{"BAD-NAME": "x"}}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/sessions/exec/exec",
		map[string]interface{}{"command": "ls", "timeout_seconds": -1}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/sessions/ghost/exec", map[string]interface{}{"command": "ls"}).Code)
}

func TestServices(t *testing.T) {
	s := newTestServer(t)
	_, err := s.sessions.CreateSession("svc")
	require.NoError(t, err)
	fs, _ := s.sessions.GetFilesystem("svc")
	require.NoError(t, fs.WriteText("/workspace/a.txt", "alpha"))

	w := s.do(t, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["services"], 2)

	w = s.do(t, http.MethodGet, "/services?category=filesystem", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["services"], 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/services?category=Bad%20Cat", nil).Code)

	w = s.do(t, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id":    "filesystem.read",
		"params":     map[string]interface{}{"path": "a.txt"},
		"session_id": "svc",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)
	assert.Equal(t, true, result["success"])
	assert.Contains(t, result["data"].(map[string]interface{})["content"], "alpha")

	w = s.do(t, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id":    "filesystem.read",
		"params":     map[string]interface{}{"path": "missing.txt"},
		"session_id": "svc",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/services/execute",
		map[string]interface{}{"tool_id": "weather.today"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/services/execute",
		map[string]interface{}{"tool_id": "filesystem"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/services/execute",
		map[string]interface{}{"tool_id": "filesystem.ls", "session_id": "ghost"}).Code)

	w = s.do(t, http.MethodPost, "/services/discover", map[string]interface{}{"query": "run a shell command"})
	require.Equal(t, http.StatusOK, w.Code)
	found := decode(t, w)["services"].([]interface{})
	require.NotEmpty(t, found)
	assert.Equal(t, "shell", found[0].(map[string]interface{})["id"])
}

func TestMetricsEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, err := s.sessions.CreateSession("m")
	require.NoError(t, err)

	s.do(t, http.MethodPost, "/services/execute", map[string]interface{}{"tool_id": "filesystem.ls", "session_id": "m"})

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cowork_tool_calls_total{service="filesystem",status="success",tool="filesystem.ls"} 1`)
	assert.Contains(t, w.Body.String(), `cowork_http_requests_total{method="POST",path="/services/execute",status="200"} 1`)

	w = s.do(t, http.MethodGet, "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "http")
}
