// Package zvm talks to the Zerto Virtual Manager REST API.
package zvm

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SampleSource supplies protected-VM counts observed within the last days.
type SampleSource interface {
	Samples(days int) ([]int, error)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	samples SampleSource
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithSamples(s SampleSource) Option {
	return func(cl *Client) { cl.samples = s }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    NewHTTPClient(true, 60*time.Second),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient builds the client shared by authentication and API calls.
func NewHTTPClient(verifyTLS bool, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !verifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via verify_tls: false
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// RequestError reports a failed data fetch.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: GET %s: HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: GET %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	url := c.baseURL + path
	req, err := c.newRequest(ctx, path)
	if err != nil {
		return &RequestError{Op: op, URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Op: op, URL: url, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, URL: url, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// Ping reports whether the server-info endpoint answers 200. Errors are
// folded into false.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := c.newRequest(ctx, serverInfoPath)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type serverInfo struct {
	Version string `json:"Version"`
}

// ServerVersion returns the ZVM version advertised by the server-info endpoint.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var info serverInfo
	if err := c.getJSON(ctx, "server info", serverInfoPath, &info); err != nil {
		return "", err
	}
	return info.Version, nil
}
