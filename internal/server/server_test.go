package server_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/graph"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/server"
	"github.com/raphaelgruber/recipebox/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	*httptest.Server
	stack *servicetest.Stack
}

func newTestServer(t *testing.T, health server.Pinger) *testServer {
	t.Helper()

	stack := servicetest.NewStack(t)
	mc := metrics.NewCollector()
	r := graph.New(graph.Services{
		Recipes:  stack.Recipes,
		Metadata: stack.Metadata,
		Users:    stack.Users,
		Hub:      stack.Hub,
		Metrics:  mc,
	}, nil)
	schema, err := graph.NewExecutableSchema(graph.Config{Resolvers: r})
	require.NoError(t, err)

	srv, err := server.New(server.Config{
		Schema:    schema,
		Auth:      stack.Users,
		Health:    health,
		Metrics:   mc,
		Logger:    slog.New(slog.DiscardHandler),
		KeepAlive: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, stack: stack}
}

func (ts *testServer) client() *client.Client {
	return client.New(ts.URL + "/query")
}

func recipeInput() models.RecipeInput {
	return models.RecipeInput{
		Title:            "Pancakes",
		Description:      "Fluffy",
		CookingTime:      20,
		Servings:         4,
		DifficultyLevel:  models.OptionInput{Value: "easy"},
		Category:         models.OptionInput{Value: "dinner"},
		Labels:           []models.OptionInput{},
		Ingredients:      []models.IngredientInput{{LocalID: "a", Name: "Flour", Quantity: 200, Unit: "g"}},
		PreparationSteps: []models.StepInput{{Description: "Mix", Order: 1}},
	}
}

func TestNewRequiresSchemaAndAuth(t *testing.T) {
	_, err := server.New(server.Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ok := newTestServer(t, pinger{})
	resp, err := http.Get(ok.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	down := newTestServer(t, pinger{err: errors.New("connection refused")})
	resp2, err := http.Get(down.URL + "/health")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}

func TestQueryOverHTTP(t *testing.T) {
	ts := newTestServer(t, nil)

	md, err := ts.client().FetchMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Key: "dinner", Label: "Dinner"}}, md.Categories)

	resp, err := http.Get(ts.URL + "/query?" + url.Values{"query": {"{metadata{units{key}}}"}}.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":{"metadata":{"units":[{"key":"g"}]}}}`, string(body))
}

func TestQueryRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"method", http.MethodDelete, "", http.StatusBadRequest},
		{"head", http.MethodHead, "", http.StatusMethodNotAllowed},
		{"malformed json", http.MethodPost, "{", http.StatusBadRequest},
		{"empty query", http.MethodPost, `{"query":""}`, http.StatusUnprocessableEntity},
		{"invalid field", http.MethodPost, `{"query":"{ nope }"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+"/query", strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestQueryBodyLimit(t *testing.T) {
	ts := newTestServer(t, nil)

	body := `{"query":"` + strings.Repeat(" ", 2<<20) + `{ me { id } }"}`
	resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "could not read request body")
	assert.NotContains(t, string(data), `"me"`)
}

func TestAutomaticPersistedQuery(t *testing.T) {
	ts := newTestServer(t, nil)

	const query = "{ metadata { units { key } } }"
	sum := sha256.Sum256([]byte(query))
	ext := fmt.Sprintf(`"extensions":{"persistedQuery":{"version":1,"sha256Hash":"%x"}}`, sum)

	post := func(body string) string {
		resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return string(data)
	}

	assert.Contains(t, post(`{`+ext+`}`), "PersistedQueryNotFound")
	assert.JSONEq(t, `{"data":{"metadata":{"units":[{"key":"g"}]}}}`, post(`{"query":"`+query+`",`+ext+`}`))
	assert.JSONEq(t, `{"data":{"metadata":{"units":[{"key":"g"}]}}}`, post(`{`+ext+`}`))
}

func TestBearerAuthentication(t *testing.T) {
	ts := newTestServer(t, nil)
	c := ts.client()

	_, err := c.CreateRecipe(context.Background(), recipeInput())
	var gqlErr *client.GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "authentication required", gqlErr.Message)

	auth, err := c.Register(context.Background(), "cook@example.com", "hunter2hunter2", "Cook")
	require.NoError(t, err)
	c.SetToken(auth.Token)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, "Cook", me.DisplayName)

	rec, err := c.CreateRecipe(context.Background(), recipeInput())
	require.NoError(t, err)
	assert.Equal(t, "Dinner", rec.Category.Label)

	c.SetToken("garbage")
	_, err = c.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	_, err := ts.client().FetchMetadata(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `recipebox_operation_duration_seconds_count{op="graphql_request"} 1`)
}

func TestPlayground(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/playground")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestWatchRecipes(t *testing.T) {
	ts := newTestServer(t, nil)

	author := ts.client()
	auth, err := author.Register(context.Background(), "cook@example.com", "hunter2hunter2", "Cook")
	require.NoError(t, err)
	author.SetToken(auth.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan client.RecipeEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- ts.client().WatchRecipes(ctx, func(ev client.RecipeEvent) error {
			events <- ev
			return errors.New("stop")
		})
	}()

	require.Eventually(t, func() bool { return ts.stack.Hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	rec, err := author.CreateRecipe(context.Background(), recipeInput())
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "created", ev.Type)
		assert.Equal(t, rec.ID, ev.RecipeID)
		assert.Equal(t, "Pancakes", ev.Title)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
	assert.EqualError(t, <-done, "stop")
	assert.Eventually(t, func() bool { return ts.stack.Hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func dialWS(t *testing.T, ts *testServer) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/query"
	conn, _, err := (&websocket.Dialer{Subprotocols: []string{"graphql-transport-ws"}}).Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func readFrame(t *testing.T, conn *websocket.Conn, skip ...string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if !slices.Contains(skip, f.Type) {
			return f
		}
	}
}

func TestWebsocketProtocol(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(frame{Type: "connection_init"}))
	assert.Equal(t, "connection_ack", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(frame{Type: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn, "ping").Type)

	// Queries are allowed over the socket: one next, then complete.
	require.NoError(t, conn.WriteJSON(frame{ID: "q1", Type: "subscribe", Payload: map[string]any{"query": "{ metadata { units { key } } }"}}))
	next := readFrame(t, conn, "ping")
	assert.Equal(t, "next", next.Type)
	assert.Equal(t, "q1", next.ID)
	assert.Equal(t, "complete", readFrame(t, conn, "ping").Type)

	require.NoError(t, conn.WriteJSON(frame{ID: "bad", Type: "subscribe", Payload: map[string]any{"query": "{ nope }"}}))
	errFrame := readFrame(t, conn, "ping")
	assert.Equal(t, "error", errFrame.Type)
	assert.Equal(t, "bad", errFrame.ID)
}

func readClose(t *testing.T, conn *websocket.Conn) *websocket.CloseError {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		return closeErr
	}
}

func TestWebsocketRejectsDuplicateInit(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(frame{Type: "connection_init"}))
	assert.Equal(t, "connection_ack", readFrame(t, conn).Type)
	require.NoError(t, conn.WriteJSON(frame{Type: "connection_init"}))

	assert.Equal(t, websocket.CloseProtocolError, readClose(t, conn).Code)
}

func TestWebsocketInitPayloadToken(t *testing.T) {
	ts := newTestServer(t, nil)

	conn := dialWS(t, ts)
	require.NoError(t, conn.WriteJSON(frame{Type: "connection_init", Payload: map[string]any{"Authorization": "Bearer nope"}}))
	closeErr := readClose(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "terminated", closeErr.Text)

	auth, err := ts.client().Register(context.Background(), "cook@example.com", "hunter2hunter2", "Cook")
	require.NoError(t, err)

	conn = dialWS(t, ts)
	require.NoError(t, conn.WriteJSON(frame{Type: "connection_init", Payload: map[string]any{"Authorization": "Bearer " + auth.Token}}))
	assert.Equal(t, "connection_ack", readFrame(t, conn).Type)
	require.NoError(t, conn.WriteJSON(frame{ID: "me", Type: "subscribe", Payload: map[string]any{"query": "{ me { displayName } }"}}))
	next := readFrame(t, conn, "ping")
	require.Equal(t, "next", next.Type)
	assert.Equal(t, map[string]any{"data": map[string]any{"me": map[string]any{"displayName": "Cook"}}}, next.Payload)
}

func TestWebsocketOutlivesServerTimeouts(t *testing.T) {
	stack := servicetest.NewStack(t)
	schema, err := graph.NewExecutableSchema(graph.Config{Resolvers: graph.New(graph.Services{
		Recipes: stack.Recipes, Metadata: stack.Metadata, Users: stack.Users, Hub: stack.Hub,
	}, nil)})
	require.NoError(t, err)
	srv, err := server.New(server.Config{Schema: schema, Auth: stack.Users, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)

	ts := httptest.NewUnstartedServer(srv.Handler())
	ts.Config.ReadTimeout = 100 * time.Millisecond
	ts.Config.WriteTimeout = 100 * time.Millisecond
	ts.Start()
	t.Cleanup(ts.Close)

	conn := dialWS(t, &testServer{Server: ts, stack: stack})
	require.NoError(t, conn.WriteJSON(frame{Type: "connection_init"}))
	assert.Equal(t, "connection_ack", readFrame(t, conn).Type)

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(frame{ID: "q", Type: "subscribe", Payload: map[string]any{"query": "{ metadata { units { key } } }"}}))
	assert.Equal(t, "next", readFrame(t, conn, "ping").Type)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	stack := servicetest.NewStack(t)
	schema, err := graph.NewExecutableSchema(graph.Config{Resolvers: graph.New(graph.Services{
		Recipes: stack.Recipes, Metadata: stack.Metadata, Users: stack.Users, Hub: stack.Hub,
	}, nil)})
	require.NoError(t, err)
	srv, err := server.New(server.Config{Schema: schema, Auth: stack.Users, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
