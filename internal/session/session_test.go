package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/api"
	"taskdeck/internal/localdb"
	"taskdeck/internal/models"
	"taskdeck/internal/notify"
)

type fakeAuthAPI struct {
	loginPayload *api.AuthPayload
	loginErr     error
	logoutErr    error
	meUser       *models.User
	meErr        error
	logoutCalls  int
}

func (f *fakeAuthAPI) Login(api.Credentials) (*api.AuthPayload, error) {
	return f.loginPayload, f.loginErr
}

func (f *fakeAuthAPI) Register(api.Registration) (*api.AuthPayload, error) {
	return f.loginPayload, f.loginErr
}

func (f *fakeAuthAPI) Logout() error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAuthAPI) Me() (*models.User, error) {
	return f.meUser, f.meErr
}

func testUser() models.User {
	return models.User{ID: "u1", Email: "a@b.test", Name: "Ada"}
}

func newTestStore(t *testing.T, remote AuthAPI) (*Store, *localdb.DB, *[]notify.Notice) {
	t.Helper()
	db, err := localdb.Open(filepath.Join(t.TempDir(), "taskdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var notices []notify.Notice
	s := NewStore(db, func(n notify.Notice) { notices = append(notices, n) })
	s.SetAPI(remote)
	return s, db, &notices
}

func TestLoginSuccess(t *testing.T) {
	user := testUser()
	remote := &fakeAuthAPI{loginPayload: &api.AuthPayload{Token: "tok-1", User: user}}
	s, _, notices := newTestStore(t, remote)

	require.NoError(t, s.Login(api.Credentials{Email: user.Email, Password: "pw"}))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "tok-1", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, user, *s.User())
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())

	require.Len(t, *notices, 1)
	assert.Equal(t, notify.Success, (*notices)[0].Level)
}

func TestLoginPersistsAcrossReload(t *testing.T) {
	user := testUser()
	remote := &fakeAuthAPI{loginPayload: &api.AuthPayload{Token: "tok-1", User: user}}
	s, db, _ := newTestStore(t, remote)
	require.NoError(t, s.Login(api.Credentials{Email: user.Email, Password: "pw"}))

	// Simulated reload: fresh store over the same database
	reloaded := NewStore(db, nil)
	require.NoError(t, reloaded.Initialize())

	assert.True(t, reloaded.IsAuthenticated())
	assert.Equal(t, "tok-1", reloaded.Token())
	require.NotNil(t, reloaded.User())
	assert.Equal(t, user, *reloaded.User())
	assert.False(t, reloaded.Loading())
	assert.Empty(t, reloaded.Err())
}

func TestLoginFailureClearsSession(t *testing.T) {
	remote := &fakeAuthAPI{loginErr: &api.HTTPError{Status: 401, Message: "Invalid credentials"}}
	s, _, notices := newTestStore(t, remote)

	err := s.Login(api.Credentials{Email: "a@b.test", Password: "bad"})
	require.Error(t, err)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Equal(t, "Invalid credentials", s.Err())

	require.Len(t, *notices, 1)
	assert.Equal(t, notify.Error, (*notices)[0].Level)
	assert.Equal(t, "Invalid credentials", (*notices)[0].Message)
}

func TestLoginTransportFailureUsesFallbackMessage(t *testing.T) {
	remote := &fakeAuthAPI{loginErr: errors.New("dial tcp: connection refused")}
	s, _, _ := newTestStore(t, remote)

	require.Error(t, s.Login(api.Credentials{}))
	assert.Equal(t, "Login failed", s.Err())
}

func TestRegisterSuccess(t *testing.T) {
	user := testUser()
	remote := &fakeAuthAPI{loginPayload: &api.AuthPayload{Token: "tok-2", User: user}}
	s, _, notices := newTestStore(t, remote)

	require.NoError(t, s.Register(api.Registration{Name: user.Name, Email: user.Email, Password: "pw"}))
	assert.True(t, s.IsAuthenticated())
	require.Len(t, *notices, 1)
	assert.Equal(t, "Registration successful! Welcome!", (*notices)[0].Message)
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	user := testUser()
	remote := &fakeAuthAPI{
		loginPayload: &api.AuthPayload{Token: "tok-1", User: user},
		logoutErr:    errors.New("server unreachable"),
	}
	s, db, notices := newTestStore(t, remote)
	require.NoError(t, s.Login(api.Credentials{}))

	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Equal(t, 1, remote.logoutCalls)

	// Cleared state persisted too
	reloaded := NewStore(db, nil)
	require.NoError(t, reloaded.Initialize())
	assert.False(t, reloaded.IsAuthenticated())

	// Logout is still announced as success
	last := (*notices)[len(*notices)-1]
	assert.Equal(t, notify.Success, last.Level)
}

func TestRefreshCurrentUserUpdatesProfile(t *testing.T) {
	user := testUser()
	remote := &fakeAuthAPI{loginPayload: &api.AuthPayload{Token: "tok-1", User: user}}
	s, _, _ := newTestStore(t, remote)
	require.NoError(t, s.Login(api.Credentials{}))

	renamed := user
	renamed.Name = "Ada Lovelace"
	remote.meUser = &renamed

	s.RefreshCurrentUser()

	require.NotNil(t, s.User())
	assert.Equal(t, "Ada Lovelace", s.User().Name)
	assert.True(t, s.IsAuthenticated())
}

func TestRefreshCurrentUserFailureCascadesToLogout(t *testing.T) {
	user := testUser()
	remote := &fakeAuthAPI{
		loginPayload: &api.AuthPayload{Token: "tok-1", User: user},
		meErr:        &api.HTTPError{Status: 401, Message: "token expired"},
	}
	s, _, _ := newTestStore(t, remote)
	require.NoError(t, s.Login(api.Credentials{}))

	s.RefreshCurrentUser()

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, StateAnonymous, s.State())
	assert.Equal(t, 1, remote.logoutCalls)
}

func TestInitializeWithPartialRecordStaysAnonymous(t *testing.T) {
	db, err := localdb.Open(filepath.Join(t.TempDir(), "taskdeck.db"))
	require.NoError(t, err)
	defer db.Close()

	// Token without user must not authenticate
	require.NoError(t, db.SetSetting("session", `{"user":null,"token":"tok","isAuthenticated":true}`))

	s := NewStore(db, nil)
	require.NoError(t, s.Initialize())
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, StateAnonymous, s.State())
}
