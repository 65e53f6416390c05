package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/courier/internal/state"
)

// StatusFetcher is what the watch poller needs from the API.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*state.Status, error)
	FetchGroups(ctx context.Context) (map[string]string, error)
}

var _ StatusFetcher = (*Client)(nil)

// Client talks to a running courier's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:5000"
	defaultUserAgent = "courier/0.1"
	requestTimeout   = 5 * time.Second
	// Sends wait on dbus-send, which can be slow for large attachments.
	sendTimeout = 60 * time.Second
)

// Message is an outbound message for SendMessage. At least one of Number
// and Group must be set.
type Message struct {
	Content    string
	Number     string
	Group      string
	Attachment string // local file path, optional
}

// NewClient builds a Client for apiBind, a host:port or URL.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchStatus retrieves daemon state and recent activity.
func (c *Client) FetchStatus(ctx context.Context) (*state.Status, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload state.Status
	if err := c.getJSON(ctx, "/api/status", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchGroups retrieves the account's group directory (name → hex id).
func (c *Client) FetchGroups(ctx context.Context) (map[string]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	groups := map[string]string{}
	if err := c.getJSON(ctx, "/group", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SendMessage posts msg to /message as the multipart upload the API expects.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(msg.Number) == "" && strings.TrimSpace(msg.Group) == "" {
		return fmt.Errorf("number or group required")
	}

	body, contentType, err := encodeMessage(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/message"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.userAgent)

	// The shared client's timeout is too short for sends.
	httpClient := *c.http
	httpClient.Timeout = 0
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus("/message", resp)
}

func encodeMessage(msg Message) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	payload, err := json.Marshal(struct {
		Content string `json:"content"`
		Number  string `json:"number,omitempty"`
		Group   string `json:"group,omitempty"`
	}{msg.Content, strings.TrimSpace(msg.Number), strings.TrimSpace(msg.Group)})
	if err != nil {
		return nil, "", fmt.Errorf("encode message: %w", err)
	}
	if err := mw.WriteField("json", string(payload)); err != nil {
		return nil, "", fmt.Errorf("encode message: %w", err)
	}

	if msg.Attachment != "" {
		f, err := os.Open(msg.Attachment)
		if err != nil {
			return nil, "", fmt.Errorf("open attachment: %w", err)
		}
		defer f.Close()
		part, err := mw.CreateFormFile("file", filepath.Base(msg.Attachment))
		if err != nil {
			return nil, "", fmt.Errorf("encode attachment: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("read attachment: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encode message: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(path, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus turns an error response into an error carrying the server's
// plain-text reason.
func checkStatus(path string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	reason, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(reason)); msg != "" {
		return fmt.Errorf("api %s returned status %d: %s", path, resp.StatusCode, msg)
	}
	return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api address %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
