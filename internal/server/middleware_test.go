package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth struct {
	token string
	id    uuid.UUID
}

func (a staticAuth) Authenticate(token string) (uuid.UUID, error) {
	if token != a.token {
		return uuid.Nil, errors.New("bad token")
	}
	return a.id, nil
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Len(t, truncate(strings.Repeat("x", 500), maxArgLogLen), maxArgLogLen)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestAuthMiddleware(t *testing.T) {
	id := uuid.New()
	var seen *uuid.UUID
	h := AuthMiddleware(staticAuth{token: "good", id: id})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = nil
		if u, ok := graph.UserFromContext(r.Context()); ok {
			seen = &u
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	assert.Equal(t, id, *seen)

	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"errors":[{"message":"invalid or expired token"}],"data":null}`, rec.Body.String())
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	slow := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(slowRequestThreshold + 10*time.Millisecond)
	}))
	slow.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/query?query="+strings.Repeat("q", 300), nil))
	assert.Contains(t, buf.String(), "level=WARN msg=\"slow request\"")
	assert.Contains(t, buf.String(), strings.Repeat("q", maxArgLogLen-3)+"...")

	buf.Reset()
	failing := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/query", nil))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "status=500")
}

func TestWebsocketInit(t *testing.T) {
	id := uuid.New()
	s := &Server{cfg: Config{Auth: staticAuth{token: "good", id: id}}}

	ctx, ack, err := s.websocketInit(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, ack)
	_, ok := graph.UserFromContext(ctx)
	assert.False(t, ok, "no token stays anonymous")

	ctx, _, err = s.websocketInit(context.Background(), transport.InitPayload{"authorization": "Bearer good"})
	require.NoError(t, err)
	got, ok := graph.UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, _, err = s.websocketInit(context.Background(), transport.InitPayload{"Authorization": "Bearer bad"})
	assert.EqualError(t, err, "invalid or expired token")

	_, _, err = s.websocketInit(context.Background(), transport.InitPayload{"Authorization": "Basic good"})
	assert.EqualError(t, err, "invalid authorization payload")
}

func TestUpgradeDeadlinesPassesThrough(t *testing.T) {
	called := 0
	h := upgradeDeadlines(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/query", nil))
	assert.Equal(t, 2, called)
}
