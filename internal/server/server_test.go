package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitormoschetta/go-voice-chat/internal/config"
	"github.com/vitormoschetta/go-voice-chat/internal/server"
)

func noop(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	srv := server.New(&config.Config{
		Server: config.ServerConfig{
			Port:           config.DefaultPort,
			AllowedOrigins: []string{"https://chat.example.com", "http://localhost:5173"},
		},
	}, nil)
	srv.SetupRouter(noop, noop, noop)
	require.NotNil(t, srv.Router)
	return srv.Router
}

func preflight(path, origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	return req
}

func TestPreflightAllowedOnEveryPath(t *testing.T) {
	t.Parallel()

	router := newRouter(t)

	for _, path := range []string{"/api/chat", "/", "/health", "/unknown"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, preflight(path, "http://localhost:5173"))

		assert.GreaterOrEqual(t, rec.Code, 200, path)
		assert.Less(t, rec.Code, 300, path)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"), path)

		allowed := rec.Header().Get("Access-Control-Allow-Headers")
		assert.Contains(t, allowed, "Content-Type", path)
		assert.Contains(t, allowed, "Authorization", path)
	}
}

func TestPreflightUnknownOrigin(t *testing.T) {
	t.Parallel()

	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, preflight("/api/chat", "https://evil.example.org"))

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSimpleRequestGetsCorsHeader(t *testing.T) {
	t.Parallel()

	router := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://chat.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestDeadlineCoversConfiguredTimeouts(t *testing.T) {
	t.Parallel()

	srv := server.New(&config.Config{
		Server:     config.ServerConfig{Port: config.DefaultPort, AllowedOrigins: []string{"http://localhost:5173"}},
		Generation: config.GenerationConfig{TimeoutSeconds: 50},
		Speech:     config.SpeechConfig{TimeoutSeconds: 40},
	}, nil)

	var deadline time.Time
	var hasDeadline bool
	chat := func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}
	srv.SetupRouter(noop, noop, chat)

	start := time.Now()
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	require.True(t, hasDeadline)
	assert.True(t, deadline.After(start.Add(90*time.Second)), "deadline %v too early", deadline.Sub(start))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseJoinsErrors(t *testing.T) {
	t.Parallel()

	var closed int
	boom := errors.New("boom")
	srv := server.New(&config.Config{}, nil,
		closerFunc(func() error { closed++; return nil }),
		closerFunc(func() error { closed++; return boom }),
	)

	err := srv.Close()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, closed)
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := server.New(&config.Config{
		Server: config.ServerConfig{Port: 0, AllowedOrigins: []string{"http://localhost:5173"}},
	}, nil)
	srv.SetupRouter(noop, noop, noop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, srv.Start(ctx))
}
