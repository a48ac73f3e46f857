package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escriba/internal/config"
)

func newPrimary(serverURL string) *PrimaryClient {
	return NewPrimaryClient(config.PrimaryTracker{
		BaseURL:    serverURL,
		APIToken:   "pk_token",
		URLFieldID: "field-url",
		DoneStatus: "complete",
		Timeout:    "5s",
	})
}

func TestPrimaryComplete_BothUpdates(t *testing.T) {
	var fieldBody, statusBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "pk_token", r.Header.Get("Authorization"))
		switch {
		case r.Method == "POST" && r.URL.Path == "/task/t-1/field/field-url":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fieldBody))
		case r.Method == "PUT" && r.URL.Path == "/task/t-1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&statusBody))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	err := newPrimary(server.URL).Complete(context.Background(), "t-1", "https://clientsite.com/blog/post")
	require.NoError(t, err)

	assert.Equal(t, "https://clientsite.com/blog/post", fieldBody["value"])
	assert.Equal(t, "complete", statusBody["status"])
}

func TestPrimaryComplete_URLFailureStillCloses(t *testing.T) {
	var closed bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"err": "field not found"}`)
		case r.Method == "PUT":
			closed = true
		}
	}))
	defer server.Close()

	err := newPrimary(server.URL).Complete(context.Background(), "t-2", "https://clientsite.com/blog/post")

	require.Error(t, err, "a failed URL update still fails Complete")
	assert.Contains(t, err.Error(), "setting URL field failed")
	assert.True(t, closed, "the status update must be attempted even when the URL update fails")
}

func TestPrimaryComplete_CloseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	err := newPrimary(server.URL).Complete(context.Background(), "t-3", "https://clientsite.com/blog/post")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing failed")
}

func TestSecondaryAssign(t *testing.T) {
	var body map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk_token", r.Header.Get("Authorization"))
		require.Equal(t, "/tasks/s-9/assign", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))
	defer server.Close()

	client := NewSecondaryClient(config.SecondaryTracker{
		BaseURL:    server.URL,
		APIToken:   "sk_token",
		AssigneeID: "user-77",
		Timeout:    "5s",
	})

	require.NoError(t, client.Assign(context.Background(), "s-9"))
	assert.Equal(t, "user-77", body["assignee"])
}

func TestSecondaryAssign_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "bad token")
	}))
	defer server.Close()

	client := NewSecondaryClient(config.SecondaryTracker{BaseURL: server.URL, APIToken: "x", AssigneeID: "u", Timeout: "5s"})
	err := client.Assign(context.Background(), "s-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
