package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// =============================================================================
// STREAMING OPERATIONS
// =============================================================================

// graphql-transport-ws protocol message types
const (
	gqlConnectionInit      = "connection_init"
	gqlConnectionAck       = "connection_ack"
	gqlSubscribe           = "subscribe"
	gqlNext                = "next"
	gqlError               = "error"
	gqlComplete            = "complete"
	gqlPing                = "ping"
	gqlPong                = "pong"
	gqlConnectionKeepAlive = "ka"
)

// wsMessage represents a graphql-transport-ws protocol message.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsSubscribePayload is the payload for subscribe messages.
type wsSubscribePayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// websocketURL converts the HTTP endpoint to its WebSocket equivalent.
func (c *Client) websocketURL() (string, error) {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	return u.String(), nil
}

// WatchRecipes subscribes to recipe change events. onEvent is invoked for each
// event; return an error from onEvent to stop watching. WatchRecipes blocks
// until ctx is cancelled, the server completes the stream or an error occurs.
func (c *Client) WatchRecipes(ctx context.Context, onEvent func(RecipeEvent) error) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	// Connect with graphql-transport-ws subprotocol
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{"graphql-transport-ws"},
	}

	header := http.Header{}
	var initPayload json.RawMessage
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
		initPayload, _ = json.Marshal(map[string]string{"Authorization": "Bearer " + token})
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	if err := conn.WriteJSON(wsMessage{Type: gqlConnectionInit, Payload: initPayload}); err != nil {
		return fmt.Errorf("send connection_init: %w", err)
	}

	var ackMsg wsMessage
	if err := conn.ReadJSON(&ackMsg); err != nil {
		return fmt.Errorf("read connection_ack: %w", err)
	}
	if ackMsg.Type != gqlConnectionAck {
		return fmt.Errorf("expected connection_ack, got %s", ackMsg.Type)
	}

	const subscriptionQuery = `
		subscription RecipeEvents {
			recipeEvents { type recipeId title at }
		}
	`

	subscriptionID := uuid.New().String()
	payload, _ := json.Marshal(wsSubscribePayload{Query: subscriptionQuery})
	if err := conn.WriteJSON(wsMessage{ID: subscriptionID, Type: gqlSubscribe, Payload: payload}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	// Handle context cancellation in a separate goroutine
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case gqlNext:
			var data struct {
				Data struct {
					RecipeEvents RecipeEvent `json:"recipeEvents"`
				} `json:"data"`
				Errors []GraphQLError `json:"errors,omitempty"`
			}
			if err := json.Unmarshal(msg.Payload, &data); err != nil {
				return fmt.Errorf("unmarshal next payload: %w", err)
			}
			if len(data.Errors) > 0 {
				return &data.Errors[0]
			}
			if err := onEvent(data.Data.RecipeEvents); err != nil {
				return err
			}

		case gqlError:
			var errs []GraphQLError
			if err := json.Unmarshal(msg.Payload, &errs); err != nil {
				return fmt.Errorf("subscription error: %s", string(msg.Payload))
			}
			if len(errs) > 0 {
				return &errs[0]
			}
			return fmt.Errorf("subscription error: unknown")

		case gqlComplete:
			return nil

		case gqlPing:
			if err := conn.WriteJSON(wsMessage{Type: gqlPong}); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}

		case gqlConnectionKeepAlive:
			continue

		default:
			continue
		}
	}
}
