// Package profile talks to the remote profile service, a JSON document
// store addressed by sanitized profile keys.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrProfileNotFound marks a profile key with no stored document.
var ErrProfileNotFound = errors.New("profile not found")

// Client reads and writes profile documents at
// {base}/profiles/{key}.json.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SanitizeKey maps an arbitrary profile name onto a key the document
// store accepts. Characters with path or query meaning become
// underscores.
func SanitizeKey(name string) string {
	replacer := strings.NewReplacer(
		".", "_",
		"#", "_",
		"$", "_",
		"[", "_",
		"]", "_",
		"/", "_",
	)
	return replacer.Replace(strings.TrimSpace(name))
}

func (c *Client) url(key string) string {
	return fmt.Sprintf("%s/profiles/%s.json", c.baseURL, SanitizeKey(key))
}

// Get fetches the profile document for key. A 404 maps to
// ErrProfileNotFound; the remote also answers a JSON null for unknown
// keys, which maps the same way.
func (c *Client) Get(ctx context.Context, key string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(key), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile body: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if doc == nil {
		return nil, ErrProfileNotFound
	}
	return doc, nil
}

// Put replaces the full profile document for key.
func (c *Client) Put(ctx context.Context, key string, doc map[string]any) error {
	return c.write(ctx, http.MethodPut, key, doc)
}

// Patch merges fields into the existing profile document for key.
func (c *Client) Patch(ctx context.Context, key string, fields map[string]any) error {
	return c.write(ctx, http.MethodPatch, key, fields)
}

func (c *Client) write(ctx context.Context, method, key string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(key), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("write profile: unexpected status %d", resp.StatusCode)
	}
	return nil
}
