package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIConfig configures the account-based HTTP API remote store.
type APIConfig struct {
	// BaseURL is the server root, e.g. "https://sync.example.com".
	BaseURL  string `json:"url"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
	DeviceID string `json:"-"`
}

// APIClient talks to the hosted backup server: register/login for a bearer
// token, then GET/PUT the backup document. It implements RemoteStore.
type APIClient struct {
	cfg    APIConfig
	client *http.Client
}

// NewAPIClient creates an API client. The token, if any, comes from a prior
// Login and is stored by the caller under the device-local remote prefix.
func NewAPIClient(cfg APIConfig) *APIClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &APIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name implements RemoteStore.
func (c *APIClient) Name() string { return "api" }

// Token returns the current bearer token.
func (c *APIClient) Token() string { return c.cfg.Token }

// SetToken replaces the bearer token, e.g. after Login.
func (c *APIClient) SetToken(token string) { c.cfg.Token = token }

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body any, authed bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if c.cfg.DeviceID != "" {
		req.Header.Set(DeviceIDHeader, c.cfg.DeviceID)
	}

	return c.client.Do(req)
}

// remoteError extracts the server's {error} body for a non-2xx response,
// falling back to the status code.
func remoteError(op string, resp *http.Response) error {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %s (status %d)", op, body.Error, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
}

// Register creates an account on the server.
func (c *APIClient) Register(ctx context.Context, email, password string) error {
	resp, err := c.do(ctx, http.MethodPost, "/register", credentialsRequest{Email: email, Password: password}, false)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError("register", resp)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Login exchanges credentials for a bearer token and installs it on the
// client.
func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login", credentialsRequest{Email: email, Password: password}, false)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", remoteError("login", resp)
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("login: decode response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("login: empty token in response")
	}

	c.cfg.Token = body.Token
	return body.Token, nil
}

// Logout revokes the current token on the server and clears it locally.
func (c *APIClient) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/logout", nil, true)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError("logout", resp)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.cfg.Token = ""
	return nil
}

// Upload implements RemoteStore via PUT /api/backup.
func (c *APIClient) Upload(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.cfg.BaseURL+"/api/backup", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if c.cfg.DeviceID != "" {
		req.Header.Set(DeviceIDHeader, c.cfg.DeviceID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError("upload", resp)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Download implements RemoteStore via GET /api/backup.
func (c *APIClient) Download(ctx context.Context) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/backup", nil, true)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, remoteError("download", resp)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
