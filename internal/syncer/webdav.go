package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProxyTargetHeader carries the true target URL when requests are routed
// through a request proxy.
const ProxyTargetHeader = "X-Target-URL"

// DeviceIDHeader tags uploads with the device's sync identity.
const DeviceIDHeader = "X-Device-Id"

// WebDAVConfig configures a WebDAV remote store.
type WebDAVConfig struct {
	// BaseURL is the WebDAV root, e.g. "https://dav.example.com/dav".
	BaseURL string `json:"url"`
	// Path is the document path under the root, e.g. "networth/backup.json".
	// Parent collections are created on demand.
	Path     string `json:"path"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Proxy, when set, becomes the literal HTTP destination; the true target
	// URL travels in the ProxyTargetHeader. Used when direct calls are
	// blocked by the caller's network policy.
	Proxy    string `json:"proxy,omitempty"`
	DeviceID string `json:"-"`
}

// WebDAVStore implements RemoteStore over plain WebDAV verbs: PUT to
// upload, GET to download, MKCOL to create parent collections.
type WebDAVStore struct {
	cfg    WebDAVConfig
	client *http.Client
}

// NewWebDAVStore creates a WebDAV remote store.
func NewWebDAVStore(cfg WebDAVConfig) *WebDAVStore {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Path = strings.Trim(cfg.Path, "/")
	if cfg.Path == "" {
		cfg.Path = "networth/backup.json"
	}
	return &WebDAVStore{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name implements RemoteStore.
func (s *WebDAVStore) Name() string { return "webdav" }

// newRequest builds a request for target, honoring the proxy mode: the
// proxy is the literal destination and the real URL rides in a side header.
func (s *WebDAVStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	reqURL := target
	if s.cfg.Proxy != "" {
		reqURL = s.cfg.Proxy
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	if s.cfg.Proxy != "" {
		req.Header.Set(ProxyTargetHeader, target)
	}
	req.SetBasicAuth(s.cfg.Username, s.cfg.Password)
	if s.cfg.DeviceID != "" {
		req.Header.Set(DeviceIDHeader, s.cfg.DeviceID)
	}
	return req, nil
}

func (s *WebDAVStore) targetURL(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.cfg.BaseURL + "/" + strings.Join(segments, "/")
}

// ensureCollections walks MKCOL from the root down to the document's parent
// collection. "Already exists" style responses (405, 409 on intermediate
// nodes that are present) are tolerated.
func (s *WebDAVStore) ensureCollections(ctx context.Context) error {
	segments := strings.Split(s.cfg.Path, "/")
	if len(segments) < 2 {
		return nil
	}

	walked := ""
	for _, seg := range segments[:len(segments)-1] {
		if walked == "" {
			walked = seg
		} else {
			walked = walked + "/" + seg
		}

		req, err := s.newRequest(ctx, "MKCOL", s.targetURL(walked), nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("mkcol %s: %w", walked, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated, http.StatusOK, http.StatusNoContent:
		case http.StatusMethodNotAllowed, http.StatusConflict:
			// Collection already exists (or the server refuses MKCOL on an
			// existing node); the PUT will tell us if it actually matters.
		default:
			return fmt.Errorf("mkcol %s: unexpected status %d", walked, resp.StatusCode)
		}
	}
	return nil
}

// Upload implements RemoteStore.
func (s *WebDAVStore) Upload(ctx context.Context, data []byte) error {
	if err := s.ensureCollections(ctx); err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodPut, s.targetURL(s.cfg.Path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webdav put: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webdav put: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Download implements RemoteStore.
func (s *WebDAVStore) Download(ctx context.Context) ([]byte, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.targetURL(s.cfg.Path), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webdav get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("webdav get: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
