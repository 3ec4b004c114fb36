// Package api is the HTTP client for the TaskVault server. It keeps the
// session cookie in an in-memory jar and echoes the anti-forgery token on
// every call, mirroring what a browser front end would do.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/taskvault/taskvault/internal/common"
)

// User is the sanitized identity record returned by the server.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Task mirrors the server's task response shape.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Attachment mirrors the server's attachment response shape.
type Attachment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	CsrfToken string `json:"csrfToken"`
	User      User   `json:"user"`
}

type attachmentURLResponse struct {
	Attachment Attachment `json:"attachment"`
	URL        string     `json:"url"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to one TaskVault server. Not safe for concurrent use; the CLI
// drives it from a single goroutine.
type Client struct {
	baseURL   string
	http      *http.Client
	csrfToken string
}

// New builds a Client with a fresh cookie jar.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.csrfToken != "" {
		req.Header.Set(common.CsrfHeaderName, c.csrfToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return &APIError{Status: resp.StatusCode, Message: er.Message}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Ping checks server and database health.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}

// Register creates an account and starts a session.
func (c *Client) Register(ctx context.Context, email, name, password string) (*User, error) {
	var sr sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/users", map[string]string{
		"email": email, "name": name, "password": password,
	}, &sr)
	if err != nil {
		return nil, err
	}
	c.csrfToken = sr.CsrfToken
	return &sr.User, nil
}

// Login starts a session for an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var sr sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/users/logon", map[string]string{
		"email": email, "password": password,
	}, &sr)
	if err != nil {
		return nil, err
	}
	c.csrfToken = sr.CsrfToken
	return &sr.User, nil
}

// Logout asks the server to clear the session cookie and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/logoff", nil, nil); err != nil {
		return err
	}
	c.csrfToken = ""
	return nil
}

// LoggedIn reports whether a session has been established.
func (c *Client) LoggedIn() bool {
	return c.csrfToken != ""
}

// Tasks lists the caller's tasks.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.doJSON(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// AddTask creates a task.
func (c *Client) AddTask(ctx context.Context, title, priority string) (*Task, error) {
	var task Task
	err := c.doJSON(ctx, http.MethodPost, "/api/tasks", map[string]string{
		"title": title, "priority": priority,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteTask marks a task done.
func (c *Client) CompleteTask(ctx context.Context, id int64) (*Task, error) {
	var task Task
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", id),
		map[string]bool{"isCompleted": true}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task and returns the removed row.
func (c *Client) DeleteTask(ctx context.Context, id int64) (*Task, error) {
	var task Task
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// AttachFile registers an attachment on a task and uploads the file's bytes
// to the presigned URL the server hands back.
func (c *Client) AttachFile(ctx context.Context, taskID int64, path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}

	var ar attachmentURLResponse
	err = c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/attachments", taskID),
		map[string]string{"fileName": name}, &ar)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ar.URL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	return &ar.Attachment, nil
}
