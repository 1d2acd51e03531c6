package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/metrics"
	"github.com/tgienger/taskflow/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	cookies map[string][]*http.Cookie
}

func newMemStore() *memStore { return &memStore{cookies: map[string][]*http.Cookie{}} }

func (m *memStore) SaveCookies(host string, c []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keep []*http.Cookie
	for _, ck := range c {
		if ck.MaxAge >= 0 {
			keep = append(keep, ck)
		}
	}
	m.cookies[host] = keep
	return nil
}

func (m *memStore) LoadCookies(host string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Cookie(nil), m.cookies[host]...), nil
}

func (m *memStore) ClearCookies() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies = map[string][]*http.Cookie{}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api", opts...)
	require.NoError(t, err)
	return c, srv
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}

func TestProtectedDecodesUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/protected", func(w http.ResponseWriter, r *http.Request) {
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err, "request id header")
		writeJSON(w, 200, map[string]any{"user": models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}})
	})
	c, _ := newTestClient(t, mux)

	u, err := c.Protected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
}

func TestProtectedMalformedBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/protected", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user": 12`))
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Protected(context.Background())
	assert.Error(t, err)

	mux2 := http.NewServeMux()
	mux2.HandleFunc("GET /api/auth/protected", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"ok": true})
	})
	c2, _ := newTestClient(t, mux2)
	_, err = c2.Protected(context.Background())
	assert.ErrorContains(t, err, "no user")
}

func TestUnauthorizedHook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"message": "Token expired"})
	})
	c, _ := newTestClient(t, mux)

	calls := 0
	c.OnUnauthorized(func() { calls++ })

	_, err := c.Protected(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, calls, "session check must not trigger the hook")

	_, err = c.ListTasks(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Token expired", ErrorMessage(err))
	assert.Equal(t, 1, calls)
}

func TestErrorDecoding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/users/update-user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 422, map[string]any{
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": "name", "message": "Name too short"}},
		})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, map[string]any{"error": "Invalid credentials", "errors": map[string]string{"email": "unknown"}})
	})
	mux.HandleFunc("GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("<html>boom</html>"))
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.UpdateUser(ctx, "A")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Validation failed", ErrorMessage(err))
	assert.Equal(t, map[string]string{"name": "Name too short"}, FieldErrors(err))

	_, err = c.Login(ctx, "a@b.co", "x")
	assert.Equal(t, "Invalid credentials", ErrorMessage(err))
	assert.Equal(t, "unknown", FieldErrors(err)["email"])

	_, _, err = c.ListProjects(ctx, nil)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, GenericMessage, ErrorMessage(err))
	assert.False(t, IsValidation(err))
}

func TestTransportErrorUsesGenericMessage(t *testing.T) {
	c, srv := newTestClient(t, http.NewServeMux())
	srv.Close()

	_, err := c.Protected(context.Background())
	require.Error(t, err)
	assert.Equal(t, GenericMessage, ErrorMessage(err))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestCookiesPersistAcrossClients(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "secret", Path: "/", HttpOnly: true})
		writeJSON(w, 200, map[string]any{"user": models.User{ID: "u1", Name: "Ada"}})
	})
	mux.HandleFunc("GET /api/auth/protected", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("token")
		if err != nil || ck.Value != "secret" {
			writeJSON(w, 401, map[string]string{"message": "no session"})
			return
		}
		writeJSON(w, 200, map[string]any{"user": models.User{ID: "u1", Name: "Ada"}})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(204)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newMemStore()
	ctx := context.Background()

	first, err := New(srv.URL+"/api", WithCookieStore(store))
	require.NoError(t, err)
	_, err = first.Login(ctx, "ada@example.com", "Secret123")
	require.NoError(t, err)

	second, err := New(srv.URL+"/api", WithCookieStore(store))
	require.NoError(t, err)
	u, err := second.Protected(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	require.NoError(t, second.Logout(ctx))
	require.NoError(t, second.ClearSession())
	assert.Empty(t, second.Cookies())

	third, err := New(srv.URL+"/api", WithCookieStore(store))
	require.NoError(t, err)
	_, err = third.Protected(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListTasksSendsQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "high", r.URL.Query().Get("priority"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, 200, map[string]any{
			"tasks": []map[string]any{{"id": "t1", "title": "Ship", "status": "pending", "priority": "high", "dueDate": "2025-01-01"}},
			"total": 11,
		})
	})
	c, _ := newTestClient(t, mux, WithMetrics(metrics.New()))

	page, err := c.ListTasks(context.Background(), url.Values{"priority": {"high"}, "page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, models.PriorityHigh, page.Tasks[0].Priority)
}

func TestEntityEnvelopes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		var in TaskInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, 201, map[string]any{"task": map[string]any{"id": "srv-1", "title": in.Title, "status": in.Status, "priority": in.Priority}})
	})
	mux.HandleFunc("PUT /api/tasks/srv-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"id": "srv-1", "title": "bare", "status": "completed", "priority": "low"})
	})
	mux.HandleFunc("POST /api/tasks/srv-1/comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 201, map[string]any{"comment": map[string]any{"id": "c9", "text": "hi"}})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, TaskInput{Title: "wrapped", Status: models.StatusPending, Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, "wrapped", created.Title)

	updated, err := c.UpdateTask(ctx, "srv-1", InputOf(*created))
	require.NoError(t, err)
	assert.Equal(t, "bare", updated.Title)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	cm, err := c.AddComment(ctx, "srv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "c9", cm.ID)
}

func TestSignupRequiresTempUserID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 201, map[string]string{"tempUserId": "tmpu"})
	})
	c, _ := newTestClient(t, mux)

	id, err := c.Signup(context.Background(), "Ada", "ada@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "tmpu", id)
}

func TestSessionExpiry(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	c, err := New("http://127.0.0.1:1/api")
	require.NoError(t, err)
	_, ok := c.SessionExpiry()
	assert.False(t, ok)
	assert.False(t, c.SessionExpired(time.Now()))

	u, _ := url.Parse("http://127.0.0.1:1/api")
	c.jar.SetCookies(u, []*http.Cookie{{Name: "token", Value: signed, Path: "/"}})

	got, ok := c.SessionExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
	assert.True(t, c.SessionExpired(time.Now()))
}
