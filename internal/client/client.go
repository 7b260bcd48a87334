package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
)

// DefaultAPIEndpoint is used when no endpoint is configured.
const DefaultAPIEndpoint = "https://api.readmill.com"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RequestSpec describes one call to the remote API.
type RequestSpec struct {
	// URL is either absolute or relative to the API endpoint.
	URL    string
	Method string
	// Data is JSON-encoded as the body of mutating requests.
	Data interface{}
	// Query is merged into the query string of GET requests.
	Query url.Values
}

// Response is a completed call with its trimmed body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into out.
func (r *Response) Decode(out interface{}) error {
	if len(r.Body) == 0 {
		return apperrors.NewParseError("empty response body", nil)
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return apperrors.NewParseError("failed to decode response", err)
	}
	return nil
}

// Location returns the created resource location, preferring the JSON body.
func (r *Response) Location() string {
	return locationFrom(r.Body, r.Header)
}

// Client talks to the reading service API.
type Client struct {
	apiEndpoint string
	clientID    string
	httpClient  *http.Client
	logger      domain.Logger

	mu          sync.RWMutex
	accessToken string
}

// NewClient creates a new API client. A zero timeout leaves requests unbounded.
func NewClient(apiEndpoint, clientID string, timeout time.Duration, logger domain.Logger) *Client {
	if apiEndpoint == "" {
		apiEndpoint = DefaultAPIEndpoint
	}
	return &Client{
		apiEndpoint: strings.TrimRight(apiEndpoint, "/"),
		clientID:    clientID,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Authorize sets the OAuth token sent with every request.
func (c *Client) Authorize(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// Deauthorize forgets the OAuth token.
func (c *Client) Deauthorize() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// IsAuthorized reports whether a token is set.
func (c *Client) IsAuthorized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// Request performs one API call. Non-2xx responses return the response together
// with a transport error (or a conflict error for 409).
func (c *Client) Request(ctx context.Context, spec RequestSpec) (*Response, error) {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.buildURL(spec.URL, method, spec.Query)
	if err != nil {
		return nil, apperrors.NewTransportError("invalid request url", 0, "", err)
	}

	var body io.Reader
	mutating := isMutating(method)
	if mutating && spec.Data != nil {
		payload, err := json.Marshal(spec.Data)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode request body", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to create request", 0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Response", "Body")
	if mutating {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "OAuth "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed", err, "method", method, "url", target)
		return nil, apperrors.NewTransportError(method+" "+spec.URL+" failed", 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to read response body", resp.StatusCode, "", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       trimBody(raw),
	}

	c.logger.Debug("Request completed", "method", method, "url", target, "status", resp.StatusCode)

	if resp.StatusCode == http.StatusConflict {
		return out, apperrors.NewConflictError(method+" "+spec.URL+" conflicted", string(out.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, apperrors.NewTransportError(method+" "+spec.URL+" failed", resp.StatusCode, string(out.Body), nil)
	}
	return out, nil
}

// buildURL resolves relative URLs against the endpoint and stamps client_id.
func (c *Client) buildURL(raw, method string, query url.Values) (string, error) {
	if !strings.HasPrefix(raw, "http") {
		raw = c.apiEndpoint + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	q := u.Query()
	if !isMutating(method) {
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
	}
	q.Set("client_id", c.clientID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// trimBody strips surrounding whitespace and a leading byte order mark.
func trimBody(b []byte) []byte {
	b = bytes.TrimSpace(b)
	b = bytes.TrimPrefix(b, utf8BOM)
	return bytes.TrimSpace(b)
}

func locationFrom(body []byte, header http.Header) string {
	var payload struct {
		Location string `json:"location"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil && payload.Location != "" {
		return payload.Location
	}
	if header != nil {
		return header.Get("Location")
	}
	return ""
}

func (c *Client) getJSON(ctx context.Context, rawURL string, query url.Values, out interface{}) error {
	resp, err := c.Request(ctx, RequestSpec{URL: rawURL, Method: http.MethodGet, Query: query})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) create(ctx context.Context, rawURL string, data interface{}) (string, error) {
	resp, err := c.Request(ctx, RequestSpec{URL: rawURL, Method: http.MethodPost, Data: data})
	if err != nil {
		return "", err
	}
	location := resp.Location()
	if location == "" {
		return "", fmt.Errorf("POST %s: %w", rawURL, domain.ErrMissingLocation)
	}
	return location, nil
}
