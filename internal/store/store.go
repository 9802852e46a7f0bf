// Package store owns the canonical in-memory task and project collections and
// keeps them synchronized with the remote API.
package store

import (
	"errors"
	"sync"

	"taskdeck/internal/api"
	"taskdeck/internal/models"
	"taskdeck/internal/notify"
)

// API is the slice of the remote API the store uses
type API interface {
	ListTasks() ([]models.Task, error)
	CreateTask(api.TaskInput) (*models.Task, error)
	UpdateTask(string, api.TaskPatch) (*models.Task, error)
	DeleteTask(string) error
	ListProjects() ([]models.Project, error)
	CreateProject(api.ProjectInput) (*models.Project, error)
	UpdateProject(string, api.ProjectPatch) (*models.Project, error)
	DeleteProject(string) error
}

// ValidationError is a local pre-network rejection; the operation never
// reaches the API and store state is untouched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Store holds the canonical collections. It carries one loading/error pair
// shared by every operation: concurrent operations race on it and the last
// one to settle determines the visible state. That matches the dashboard
// behavior this client reproduces and is accepted, not a defect.
type Store struct {
	mu     sync.Mutex
	remote API
	notify notify.Func

	tasks    []models.Task
	projects []models.Project
	loading  bool
	errMsg   string
}

// New creates a store bound to the remote API
func New(remote API, n notify.Func) *Store {
	return &Store{remote: remote, notify: n}
}

// FetchTasks replaces the canonical task collection with the server's order.
// On failure the prior collection is left untouched.
func (s *Store) FetchTasks() error {
	s.begin()

	tasks, err := s.remote.ListTasks()
	if err != nil {
		s.fail(err, "Failed to fetch tasks")
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.settleLocked()
	s.mu.Unlock()
	return nil
}

// AddTask creates a task and appends the server-returned entity
func (s *Store) AddTask(in api.TaskInput) error {
	s.begin()

	task, err := s.remote.CreateTask(in)
	if err != nil {
		s.fail(err, "Failed to create task")
		return err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, *task)
	s.settleLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Task created!")
	return nil
}

// UpdateTask applies a partial update and replaces the matching entity in
// place. An unknown ID leaves the collection shape unchanged.
func (s *Store) UpdateTask(id string, patch api.TaskPatch) error {
	s.begin()

	task, err := s.remote.UpdateTask(id, patch)
	if err != nil {
		s.fail(err, "Failed to update task")
		return err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = *task
		}
	}
	s.settleLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Task updated!")
	return nil
}

// DeleteTask removes the matching entity by ID filter
func (s *Store) DeleteTask(id string) error {
	s.begin()

	if err := s.remote.DeleteTask(id); err != nil {
		s.fail(err, "Failed to delete task")
		return err
	}

	s.mu.Lock()
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.settleLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Task deleted!")
	return nil
}

// FetchProjects replaces the canonical project collection with the server's order
func (s *Store) FetchProjects() error {
	s.begin()

	projects, err := s.remote.ListProjects()
	if err != nil {
		s.fail(err, "Failed to fetch projects")
		return err
	}

	s.mu.Lock()
	s.projects = projects
	s.settleLocked()
	s.mu.Unlock()
	return nil
}

// AddProject creates a project. Both dates must be present before any network
// call; violation is a local validation error with no loading state change.
func (s *Store) AddProject(in api.ProjectInput) error {
	if in.StartDate == "" || in.EndDate == "" {
		return &ValidationError{Message: "Please fill both start date and end date."}
	}

	s.begin()

	project, err := s.remote.CreateProject(in)
	if err != nil {
		s.fail(err, "Failed to create project")
		return err
	}

	s.mu.Lock()
	s.projects = append(s.projects, *project)
	s.settleLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Project created!")
	return nil
}

// UpdateProject applies a partial update and replaces the matching entity in place
func (s *Store) UpdateProject(id string, patch api.ProjectPatch) error {
	s.begin()

	project, err := s.remote.UpdateProject(id, patch)
	if err != nil {
		s.fail(err, "Failed to update project")
		return err
	}

	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects[i] = *project
		}
	}
	s.settleLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Project updated!")
	return nil
}

// DeleteProject removes the matching entity by ID filter
func (s *Store) DeleteProject(id string) error {
	s.begin()

	if err := s.remote.DeleteProject(id); err != nil {
		s.fail(err, "Failed to delete project")
		return err
	}

	s.mu.Lock()
	kept := s.projects[:0:0]
	for _, p := range s.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.projects = kept
	s.settleLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Project deleted!")
	return nil
}

// Tasks returns a copy of the canonical task collection
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Projects returns a copy of the canonical project collection
func (s *Store) Projects() []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// ProjectByID looks up a project in the canonical collection
func (s *Store) ProjectByID(id string) (models.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

// Loading reports whether an operation is in flight (last settled wins)
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last operation's error message, empty when none
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError resets the error field
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) settleLocked() {
	s.loading = false
	s.errMsg = ""
}

func (s *Store) fail(err error, message string) {
	s.mu.Lock()
	s.loading = false
	s.errMsg = errMessage(err, message)
	s.mu.Unlock()

	s.notify.Emit(notify.Error, message)
}

func errMessage(err error, fallback string) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}
