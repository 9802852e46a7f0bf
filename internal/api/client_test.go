package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, staticToken(token))
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: json.RawMessage(`[]`)})
	}, "secret-token")

	_, err := client.ListTasks()
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotAccept)
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: json.RawMessage(`[]`)})
	}, "")

	_, err := client.ListTasks()
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestLoginDecodesPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@b.test", creds.Email)

		writeEnvelope(w, http.StatusOK, Envelope{
			Success: true,
			Data:    json.RawMessage(`{"token":"tok-1","user":{"id":"u1","email":"a@b.test"}}`),
		})
	}, "")

	payload, err := client.Login(Credentials{Email: "a@b.test", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", payload.Token)
	assert.Equal(t, "u1", payload.User.ID)
}

func TestServerMessageSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, Envelope{
			Success: false,
			Message: "Invalid credentials",
			Errors:  []string{"email or password incorrect"},
		})
	}, "")

	_, err := client.Login(Credentials{Email: "a@b.test", Password: "bad"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Invalid credentials", httpErr.Message)
	assert.Equal(t, []string{"email or password incorrect"}, httpErr.Errors)
}

func TestSuccessFalseWithOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, Envelope{Success: false, Message: "title is required"})
	}, "")

	_, err := client.CreateTask(TaskInput{})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "title is required", httpErr.Message)
}

func TestFallbackMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "")

	err := client.DeleteTask("t1")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "Request failed", httpErr.Message)
}

func TestNetworkErrorIsNotHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, staticToken(""))
	_, err := client.ListTasks()
	require.Error(t, err)

	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

func TestUpdateTaskSendsPartialBody(t *testing.T) {
	done := models.TaskDone
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tasks/t1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "done"}, body)

		writeEnvelope(w, http.StatusOK, Envelope{
			Success: true,
			Data:    json.RawMessage(`{"id":"t1","title":"x","status":"done","priority":"low"}`),
		})
	}, "tok")

	task, err := client.UpdateTask("t1", TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.TaskDone, task.Status)
}
