// Package client talks to a running UniAssist student site over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Client is an HTTP client for the student site. It keeps the session cookie,
// so chatting after Login runs as that user.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	chatToken string
}

// Reply is the body of a chat response.
type Reply struct {
	Reply   string `json:"reply,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIError is a non-success response from the site.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.Status, e.Message)
}

// New creates a client for baseURL.
// If baseURL is empty, uses UNIASSIST_SERVER_URL or defaults to localhost:5000.
// Timeout can be configured via UNIASSIST_CLIENT_TIMEOUT (default 2m, as replies wait on the model).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("UNIASSIST_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("UNIASSIST_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Health checks that the site is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return nil
}

// Send posts one chat message and returns the assistant's reply.
// A reply whose history could not be saved has Warning set and no error.
func (c *Client) Send(ctx context.Context, message string) (*Reply, error) {
	reply, err := c.send(ctx, message)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Message == csrfRejected {
		c.resetChatToken()
		reply, err = c.send(ctx, message)
	}
	return reply, err
}

// csrfRejected is the site's error for a missing or stale chat token.
const csrfRejected = "invalid or missing CSRF token"

func (c *Client) send(ctx context.Context, message string) (*Reply, error) {
	token, err := c.chatCSRF(ctx)
	if err != nil {
		return nil, err
	}
	reqBody, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: reply.Error}
	}
	return &reply, nil
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// Login signs in as a student so later chats are stored in that user's history.
func (c *Client) Login(ctx context.Context, email, password string) error {
	token, err := c.csrfToken(ctx, "/login")
	if err != nil {
		return err
	}

	form := url.Values{"csrf_token": {token}, "email": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return &APIError{Status: resp.StatusCode, Message: "unexpected login response"}
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		return fmt.Errorf("login failed: check your email and password")
	}
	// Login rotates the session's token.
	c.resetChatToken()
	return nil
}

// chatCSRF returns the session's token for chat requests, loading it from the
// chat page on first use.
func (c *Client) chatCSRF(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.chatToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	token, err := c.csrfToken(ctx, "/chat")
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.chatToken = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) resetChatToken() {
	c.mu.Lock()
	c.chatToken = ""
	c.mu.Unlock()
}

func (c *Client) csrfToken(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	m := csrfPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no form token on %s", path)
	}
	return string(m[1]), nil
}
