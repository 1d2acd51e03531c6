package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/models"
)

type gateway struct {
	mu       sync.Mutex
	signups  []map[string]string
	verified []map[string]string
	queries  []string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request) map[string]string {
	var m map[string]string
	json.NewDecoder(r.Body).Decode(&m)
	return m
}

func (g *gateway) handler() http.Handler {
	ada := models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	authed := func(r *http.Request) bool {
		ck, err := r.Cookie("token")
		return err == nil && ck.Value == "secret"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if decode(r)["password"] != "Secret123" {
			writeJSON(w, 401, map[string]string{"message": "Invalid email or password"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "secret", Path: "/", HttpOnly: true})
		writeJSON(w, 200, map[string]any{"user": ada})
	})
	mux.HandleFunc("GET /api/auth/protected", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, 401, map[string]string{"message": "Not authorized"})
			return
		}
		writeJSON(w, 200, map[string]any{"user": ada})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(204)
	})
	mux.HandleFunc("POST /api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.signups = append(g.signups, decode(r))
		g.mu.Unlock()
		writeJSON(w, 201, map[string]string{"tempUserId": "tmp-user-7"})
	})
	mux.HandleFunc("POST /api/auth/verify-signup-otp", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		g.mu.Lock()
		g.verified = append(g.verified, body)
		g.mu.Unlock()
		if body["otp"] != "123456" {
			writeJSON(w, 400, map[string]string{"message": "Invalid or expired code"})
			return
		}
		w.WriteHeader(204)
	})
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.queries = append(g.queries, r.URL.RawQuery)
		g.mu.Unlock()
		writeJSON(w, 200, map[string]any{
			"tasks": []map[string]any{
				{"id": "t1", "title": "Write report", "priority": "high", "status": "pending", "dueDate": "2025-01-01"},
				{"id": "t2", "title": "Review PR", "priority": "low", "status": "completed", "dueDate": "2025-01-02"},
			},
			"total": 2,
		})
	})
	mux.HandleFunc("GET /api/projects/statistics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"statistics": map[string]int{"totalProjects": 3, "activeProjects": 2, "completedProjects": 1}})
	})
	return mux
}

type harness struct {
	t       *testing.T
	gw      *gateway
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gw := &gateway{}
	srv := httptest.NewServer(gw.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "api:\n  base_url: " + srv.URL + "/api\n  timeout: 5s\ndata_dir: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	t.Setenv("TASKFLOW_API_URL", "")
	return &harness{t: t, gw: gw, cfgPath: cfgPath}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	root := newRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Equal(t, "taskflow 1.2.3 (commit: abc, built: today)\n", out)
}

func TestLoginPersistsSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out, err := h.run("Secret123\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as Ada <ada@example.com>\n", out)

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada <ada@example.com>")

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)

	_, err = h.run("", "whoami")
	require.Error(t, err)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("wrong-password\n", "login", "--email", "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, "login failed: Invalid email or password", err.Error())
}

func TestLoginValidatesBeforeCalling(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("\n", "login", "--email", "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please enter a valid email address")
}

func TestRegisterThenVerify(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("Secret123\nSecret123\n", "register", "--name", "Ada", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "We sent a code to ada@example.com")
	require.Len(t, h.gw.signups, 1)
	assert.Equal(t, "Ada", h.gw.signups[0]["name"])

	_, err = h.run("", "verify-otp", "--code", "12")
	require.Error(t, err)
	assert.Equal(t, "Code must be 6 digits", err.Error())
	assert.Empty(t, h.gw.verified)

	_, err = h.run("", "verify-otp", "--code", "000000")
	require.Error(t, err)
	assert.Equal(t, "verification failed: Invalid or expired code", err.Error())

	out, err = h.run("", "verify-otp", "--code", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Email verified")
	require.Len(t, h.gw.verified, 2)
	assert.Equal(t, "tmp-user-7", h.gw.verified[1]["tempUserId"])

	// the pending registration is consumed
	_, err = h.run("", "verify-otp", "--code", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pending registration")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("Secret123\nSecret124\n", "register", "--name", "Ada", "--email", "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", err.Error())
	assert.Empty(t, h.gw.signups)
}

func TestTasksAndStats(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("Secret123\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)

	out, err := h.run("", "tasks", "--assigned", "--status", "in-progress", "--priority", "HIGH")
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "2025-01-01 !")
	assert.Contains(t, out, "Page 1 of 1 (2 total)")
	assert.Contains(t, out, "2 tasks: 1 completed, 0 in progress, 1 pending, 1 overdue (50% done)")

	q := h.gw.queries[len(h.gw.queries)-1]
	assert.Contains(t, q, "scope=assigned")
	assert.Contains(t, q, "status=in+progress")
	assert.Contains(t, q, "priority=high")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Open by priority: low 0, medium 0, high 1")
	assert.Contains(t, out, "3 projects: 2 active, 1 completed, 0 on hold")
}

func TestTasksRequiresLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taskflow login")
	assert.Empty(t, h.gw.queries)
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	root := newRootCmd(BuildInfo{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, root.Execute())
	assert.FileExists(t, path)

	_, err := h.run("", "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	shown, err := h.run("", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, shown, "base_url: http://127.0.0.1")
	assert.Contains(t, shown, "timeout: 5s")
}
