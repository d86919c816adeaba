// Package boxapi is a minimal client for the item endpoints of a Box-style
// content API: read an item's current name and rename it.
package boxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-migration-audit/internal/model"
)

const (
	DefaultBaseURL = "https://api.box.com/2.0"
	DefaultTimeout = 30 * time.Second

	itemFields       = "id,name,type"
	maxErrorBodySize = 64 << 10
)

// Item is the subset of a remote file or folder the auditor needs.
type Item struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func New(baseURL string, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid api base url %q", model.ErrInvalidInput, baseURL)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: api token is required", model.ErrInvalidInput)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		userAgent: "go-migration-audit",
		http:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetItem fetches the current state of a file or folder.
func (c *Client) GetItem(ctx context.Context, itemType model.ItemType, id string) (Item, error) {
	endpoint, err := c.itemURL(itemType, id)
	if err != nil {
		return Item{}, err
	}

	query := url.Values{}
	query.Set("fields", itemFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Item{}, fmt.Errorf("build get request: %w", err)
	}

	var item Item
	if err := c.do(req, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// RenameItem sets a new name on a file or folder. The idempotency key lets
// the remote service collapse repeated deliveries of the same rename.
func (c *Client) RenameItem(ctx context.Context, itemType model.ItemType, id string, name string, idempotencyKey string) (Item, error) {
	endpoint, err := c.itemURL(itemType, id)
	if err != nil {
		return Item{}, err
	}

	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return Item{}, fmt.Errorf("encode rename body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return Item{}, fmt.Errorf("build rename request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	var item Item
	if err := c.do(req, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (c *Client) itemURL(itemType model.ItemType, id string) (string, error) {
	var collection string
	switch itemType {
	case model.ItemTypeFile:
		collection = "files"
	case model.ItemTypeFolder:
		collection = "folders"
	default:
		return "", fmt.Errorf("%w: unsupported item type %q", model.ErrInvalidInput, itemType)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: item id is required", model.ErrInvalidInput)
	}

	return c.baseURL + "/" + collection + "/" + url.PathEscape(id), nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("box api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("box api: status %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether repeating the request may succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return model.ErrItemNotFound
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	default:
		return nil
	}
}

func newError(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	var payload struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		apiErr.RequestID = payload.RequestID
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && seconds > 0 {
		apiErr.RetryAfter = time.Duration(seconds) * time.Second
	}

	return apiErr
}
