package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is an open WebSocket chat. Each Send gets exactly one reply frame.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Dial opens the WebSocket chat, carrying the client's session cookie and
// CSRF token.
func (c *Client) Dial(ctx context.Context) (*Conn, error) {
	token, err := c.chatCSRF(ctx)
	if err != nil {
		return nil, err
	}
	wsURL := c.baseURL + "/chat/ws?csrf_token=" + url.QueryEscape(token)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Jar:              c.httpClient.Jar,
	}
	ws, resp, err := dialer.DialContext(ctx, wsURL, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes one message and waits for its reply. Cancelling ctx closes the
// connection.
func (c *Conn) Send(ctx context.Context, message string) (*Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.ws.Close()
		case <-done:
		}
	}()

	if err := c.ws.WriteJSON(map[string]string{"message": message}); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	var reply Reply
	if err := c.ws.ReadJSON(&reply); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("chat error: %s", reply.Error)
	}
	return &reply, nil
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
