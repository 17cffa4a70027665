// Package therefore is a thin client for the Therefore document-management
// REST API. The portal never exposes the Therefore credentials to the
// browser; every request is re-issued server-side with HTTP Basic auth.
package therefore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/urovesa/portal-api/internal/config"
)

// Result is the raw upstream response: status code plus body, relayed
// unmodified to the caller.
type Result struct {
	StatusCode int
	Body       json.RawMessage
}

type Client struct {
	baseURL  string
	username string
	password string
	tenant   string
	http     *http.Client
}

// NewClient creates a Therefore API client from configuration.
func NewClient(cfg config.ThereforeConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		tenant:   cfg.Tenant,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// ExecuteSingleQuery relays a Document/ExecuteSingleQuery request.
func (c *Client) ExecuteSingleQuery(ctx context.Context, body json.RawMessage) (*Result, error) {
	return c.post(ctx, "Document/ExecuteSingleQuery", body)
}

// CreateDocument relays a Document/CreateDocument request.
func (c *Client) CreateDocument(ctx context.Context, body json.RawMessage) (*Result, error) {
	return c.post(ctx, "Document/CreateDocument", body)
}

// GetDocument fetches one document by its number.
func (c *Client) GetDocument(ctx context.Context, docNo string) (*Result, error) {
	path := "Document/GetDocument?DocNo=" + url.QueryEscape(docNo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body json.RawMessage) (*Result, error) {
	if body == nil {
		body = json.RawMessage(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Result, error) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	if c.tenant != "" {
		req.Header.Set("X-Therefore-Online-Tenant", c.tenant)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("therefore request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read therefore response: %w", err)
	}

	// Upstream occasionally returns empty or non-JSON bodies on errors;
	// normalize to an empty object so the relay stays valid JSON.
	if !json.Valid(body) {
		body = json.RawMessage(`{}`)
	}

	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}
