// Package session holds the authenticated user's credential and profile and
// keeps a projection of it in the local database so a restart resumes the
// session without a network call.
package session

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"taskdeck/internal/api"
	"taskdeck/internal/localdb"
	"taskdeck/internal/models"
	"taskdeck/internal/notify"
)

// State is the auth state machine position
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

// AuthAPI is the slice of the remote API the session store uses
type AuthAPI interface {
	Login(api.Credentials) (*api.AuthPayload, error)
	Register(api.Registration) (*api.AuthPayload, error)
	Logout() error
	Me() (*models.User, error)
}

const settingKey = "session"

// persisted is the only shape written to disk. Loading and error state are
// transient and always reset on rehydration.
type persisted struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Store is the auth session store
type Store struct {
	mu     sync.Mutex
	db     *localdb.DB
	remote AuthAPI
	notify notify.Func

	state   State
	user    *models.User
	token   string
	loading bool
	errMsg  string
}

// NewStore creates a session store backed by db. The remote API is attached
// with SetAPI after the HTTP client exists, since the client in turn reads its
// bearer token from this store.
func NewStore(db *localdb.DB, n notify.Func) *Store {
	return &Store{db: db, notify: n}
}

// SetAPI attaches the remote auth API
func (s *Store) SetAPI(remote AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = remote
}

// Initialize rehydrates the persisted session. No network call: a stale token
// surfaces later through RefreshCurrentUser.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.errMsg = ""

	raw, err := s.db.GetSetting(settingKey)
	if err != nil {
		return err
	}
	if raw == "" {
		s.state = StateAnonymous
		return nil
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.state = StateAnonymous
		return err
	}

	if p.Token != "" && p.User != nil {
		s.user = p.User
		s.token = p.Token
		s.state = StateAuthenticated
	} else {
		s.state = StateAnonymous
	}
	return nil
}

// Login authenticates with the remote API. On failure the session is fully
// cleared and the server's message (or a fallback) is recorded and surfaced.
func (s *Store) Login(creds api.Credentials) error {
	s.beginAuth()

	payload, err := s.remote.Login(creds)
	if err != nil {
		s.failAuth(messageFor(err, "Login failed"))
		return err
	}

	s.completeAuth(payload, "Login successful!")
	return nil
}

// Register creates an account; same shape as Login apart from endpoint and message
func (s *Store) Register(reg api.Registration) error {
	s.beginAuth()

	payload, err := s.remote.Register(reg)
	if err != nil {
		s.failAuth(messageFor(err, "Registration failed"))
		return err
	}

	s.completeAuth(payload, "Registration successful! Welcome!")
	return nil
}

// Logout clears the session unconditionally. The remote call is best effort;
// its failure is logged, never surfaced as blocking.
func (s *Store) Logout() {
	s.mu.Lock()
	remote := s.remote
	s.loading = true
	s.mu.Unlock()

	if remote != nil {
		if err := remote.Logout(); err != nil {
			log.Printf("logout: %v", err)
		}
	}

	s.mu.Lock()
	s.clearLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, "Logged out successfully")
}

// RefreshCurrentUser re-fetches the profile. A rejecting or unreachable
// "who am I" check means the session is invalid, so failure cascades into Logout.
func (s *Store) RefreshCurrentUser() {
	s.mu.Lock()
	remote := s.remote
	s.loading = true
	s.mu.Unlock()

	user, err := remote.Me()
	if err != nil {
		log.Printf("refresh current user: %v", err)
		s.Logout()
		return
	}

	s.mu.Lock()
	s.user = user
	s.loading = false
	s.persistLocked()
	s.mu.Unlock()
}

func (s *Store) beginAuth() {
	s.mu.Lock()
	s.state = StateAuthenticating
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) completeAuth(payload *api.AuthPayload, message string) {
	s.mu.Lock()
	user := payload.User
	s.user = &user
	s.token = payload.Token
	s.state = StateAuthenticated
	s.loading = false
	s.errMsg = ""
	s.persistLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Success, message)
}

func (s *Store) failAuth(message string) {
	s.mu.Lock()
	s.clearLocked()
	s.errMsg = message
	s.persistLocked()
	s.mu.Unlock()

	s.notify.Emit(notify.Error, message)
}

// clearLocked resets to anonymous; callers hold the lock
func (s *Store) clearLocked() {
	s.user = nil
	s.token = ""
	s.state = StateAnonymous
	s.loading = false
	s.errMsg = ""
}

func (s *Store) persistLocked() {
	p := persisted{
		User:            s.user,
		Token:           s.token,
		IsAuthenticated: s.state == StateAuthenticated,
	}
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("persist session: %v", err)
		return
	}
	if err := s.db.SetSetting(settingKey, string(data)); err != nil {
		log.Printf("persist session: %v", err)
	}
}

// Token implements api.TokenSource
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns the current auth state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether both user and token are present
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated && s.user != nil && s.token != ""
}

// User returns the current profile, nil when anonymous
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Loading reports whether an auth operation is in flight
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last auth failure message, empty when none
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func messageFor(err error, fallback string) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}
