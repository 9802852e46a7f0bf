// Package api is the JSON-over-HTTP client for the remote task service.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/models"
)

// TokenSource yields the bearer credential for outgoing requests.
// An empty string means no session; the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Envelope is the base response contract of the remote API
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// HTTPError is a completed request the server rejected, either with a non-2xx
// status or a success:false envelope.
type HTTPError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Client provides typed access to the task service API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a client rooted at baseURL. Every call is a single
// attempt; retry policy belongs to callers and none is applied here.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
	}
}

const fallbackMessage = "Request failed"

func (c *Client) do(method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env Envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 || (decodeErr == nil && !env.Success) {
		message := env.Message
		if message == "" {
			message = fallbackMessage
		}
		return &HTTPError{Status: resp.StatusCode, Message: message, Errors: env.Errors}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, decodeErr)
	}

	if result != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload is returned by login and register
type AuthPayload struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates with email and password
func (c *Client) Login(creds Credentials) (*AuthPayload, error) {
	var payload AuthPayload
	if err := c.do(http.MethodPost, "/auth/login", creds, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Register creates a new account and returns its first session
func (c *Client) Register(reg Registration) (*AuthPayload, error) {
	var payload AuthPayload
	if err := c.do(http.MethodPost, "/auth/register", reg, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Logout invalidates the session server-side, best effort
func (c *Client) Logout() error {
	return c.do(http.MethodPost, "/auth/logout", nil, nil)
}

type mePayload struct {
	User models.User `json:"user"`
}

// Me fetches the current user profile
func (c *Client) Me() (*models.User, error) {
	var payload mePayload
	if err := c.do(http.MethodGet, "/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// TaskInput is the create-task request body
type TaskInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      models.TaskStatus `json:"status"`
	Priority    models.Priority   `json:"priority"`
	DueDate     string            `json:"dueDate,omitempty"`
	ProjectID   string            `json:"projectId,omitempty"`
}

// TaskPatch is a partial task update; nil fields are left unchanged
type TaskPatch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *models.TaskStatus `json:"status,omitempty"`
	Priority    *models.Priority   `json:"priority,omitempty"`
	DueDate     *string            `json:"dueDate,omitempty"`
	ProjectID   *string            `json:"projectId,omitempty"`
}

// ListTasks returns all tasks in server order
func (c *Client) ListTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task; the server assigns the ID
func (c *Client) CreateTask(in TaskInput) (*models.Task, error) {
	var task models.Task
	if err := c.do(http.MethodPost, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update and returns the full replacement entity
func (c *Client) UpdateTask(id string, patch TaskPatch) (*models.Task, error) {
	var task models.Task
	if err := c.do(http.MethodPut, "/tasks/"+id, patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task by ID
func (c *Client) DeleteTask(id string) error {
	return c.do(http.MethodDelete, "/tasks/"+id, nil, nil)
}

// ProjectInput is the create-project request body
type ProjectInput struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Status      models.ProjectStatus `json:"status"`
	Priority    models.Priority      `json:"priority"`
	Color       string               `json:"color,omitempty"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
}

// ProjectPatch is a partial project update; nil fields are left unchanged
type ProjectPatch struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *models.ProjectStatus `json:"status,omitempty"`
	Priority    *models.Priority      `json:"priority,omitempty"`
	Color       *string               `json:"color,omitempty"`
	StartDate   *string               `json:"startDate,omitempty"`
	EndDate     *string               `json:"endDate,omitempty"`
}

// ListProjects returns all projects in server order
func (c *Client) ListProjects() ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project; the server assigns the ID
func (c *Client) CreateProject(in ProjectInput) (*models.Project, error) {
	var project models.Project
	if err := c.do(http.MethodPost, "/projects", in, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies a partial update and returns the full replacement entity
func (c *Client) UpdateProject(id string, patch ProjectPatch) (*models.Project, error) {
	var project models.Project
	if err := c.do(http.MethodPut, "/projects/"+id, patch, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project by ID
func (c *Client) DeleteProject(id string) error {
	return c.do(http.MethodDelete, "/projects/"+id, nil, nil)
}
