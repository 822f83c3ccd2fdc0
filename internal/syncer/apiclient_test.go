package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_Register(t *testing.T) {
	var got credentialsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"u1","email":"a@example.com"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL})
	require.NoError(t, c.Register(context.Background(), "a@example.com", "password123"))
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "password123", got.Password)
}

func TestAPIClient_Register_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"email already registered"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL})
	err := c.Register(context.Background(), "a@example.com", "password123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestAPIClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		w.Write([]byte(`{"token":"jwt-token"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL})
	token, err := c.Login(context.Background(), "a@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	// The token is installed for subsequent authed calls.
	assert.Equal(t, "jwt-token", c.Token())
}

func TestAPIClient_Login_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL})
	_, err := c.Login(context.Background(), "a@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.Empty(t, c.Token())
}

func TestAPIClient_Logout(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/logout", r.URL.Path)
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL, Token: "jwt-token"})
	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "Bearer jwt-token", auth)
	assert.Empty(t, c.Token())
}

func TestAPIClient_UploadDownload(t *testing.T) {
	var stored []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/backup", r.URL.Path)
		require.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		require.Equal(t, "device-1", r.Header.Get(DeviceIDHeader))

		switch r.Method {
		case http.MethodPut:
			stored, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			w.Write(stored)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL, Token: "jwt-token", DeviceID: "device-1"})

	require.NoError(t, c.Upload(context.Background(), []byte(`{"doc":1}`)))

	data, err := c.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"doc":1}`, string(data))
}

func TestAPIClient_Download_NoBackup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"backup not found"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(APIConfig{BaseURL: srv.URL, Token: "jwt-token"})
	_, err := c.Download(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup not found")
}
