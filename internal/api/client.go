package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the storefront API origin.
	DefaultBaseURL = "https://ecommerce.routemisr.com/api"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 15 * time.Second
	// TokenHeader carries the session token. The API does not use a bearer scheme.
	TokenHeader = "token"

	defaultUserAgent = "tote/0.1"
	maxBodyBytes     = 8 << 20
)

// TokenSource supplies the current session token; empty means anonymous.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client talks to the storefront REST API.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	userAgent      string
	tokens         TokenSource
	logger         *slog.Logger
	onUnauthorized func(ctx context.Context, err *Error)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is kept
// unless WithTimeout is applied afterwards.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource sets where the session token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUnauthorizedHandler registers fn to run when a protected endpoint
// rejects the session. It runs before the failing call returns.
func WithUnauthorizedHandler(fn func(ctx context.Context, err *Error)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient builds a Client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: defaultUserAgent,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request carries optional query parameters and a JSON body.
type Request struct {
	Query url.Values
	Body  any
}

// Do sends one request and decodes a 2xx JSON response into dest (which may be
// nil). Failures are always *Error; problems on this side of the wire, such
// as an unencodable body or an undecodable response, are KindServer with
// Status 0.
func (c *Client) Do(ctx context.Context, method, path string, req Request, dest any) error {
	if c == nil {
		return localFailure(method, path, errors.New("client is nil"))
	}
	reqURL := c.resolve(path, req.Query)

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return localFailure(method, path, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return localFailure(method, path, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set(TokenHeader, token)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		apiErr := &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
		c.logFailure(apiErr)
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		apiErr := &Error{Kind: KindNetwork, Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
		c.logFailure(apiErr)
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Kind:    classify(method, path, resp.StatusCode),
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: serverMessage(payload),
			Body:    payload,
		}
		c.logFailure(apiErr)
		if apiErr.Kind == KindAuthRejected && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, apiErr)
		}
		return apiErr
	}

	if failed, msg := applicationFailure(payload); failed {
		apiErr := &Error{Kind: KindValidation, Method: method, Path: path, Status: resp.StatusCode, Message: msg, Body: payload}
		c.logFailure(apiErr)
		return apiErr
	}

	if dest == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		apiErr := &Error{Kind: KindServer, Method: method, Path: path, Status: resp.StatusCode, Body: payload, Err: fmt.Errorf("decode response: %w", err)}
		c.logFailure(apiErr)
		return apiErr
	}
	return nil
}

func localFailure(method, path string, err error) *Error {
	return &Error{Kind: KindServer, Method: method, Path: path, Err: err}
}

// list issues a collection GET and treats the "nothing here yet" quirk as an
// empty result: dest is left at its zero value and no error is returned.
func (c *Client) list(ctx context.Context, path string, query url.Values, dest any) error {
	err := c.Do(ctx, http.MethodGet, path, Request{Query: query}, dest)
	if IsEmpty(err) {
		return nil
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.Do(ctx, http.MethodGet, path, Request{}, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body any, dest any) error {
	return c.Do(ctx, method, path, Request{Body: body}, dest)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) logFailure(err *Error) {
	if err.Kind == KindEmpty {
		return
	}
	attrs := []any{
		slog.String("method", err.Method),
		slog.String("path", err.Path),
		slog.String("kind", err.Kind.String()),
	}
	if err.Status != 0 {
		attrs = append(attrs, slog.Int("status", err.Status))
	}
	if err.Err != nil {
		attrs = append(attrs, slog.String("error", err.Err.Error()))
	}
	if err.Message != "" {
		attrs = append(attrs, slog.String("message", err.Message))
	}
	c.logger.Warn("api request failed", attrs...)
}

// serverMessage extracts a human-readable message from an error payload. The
// API uses "message" for most failures and "errors.msg" for field validation.
func serverMessage(payload []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if fieldMsg := fieldErrorMessage(body.Errors); fieldMsg != "" {
		return fieldMsg
	}
	if body.Message != "" {
		return body.Message
	}
	var errText string
	if json.Unmarshal(body.Error, &errText) == nil {
		return errText
	}
	return ""
}

func fieldErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &single) == nil && single.Msg != "" {
		return single.Msg
	}
	var many []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &many) == nil {
		msgs := make([]string, 0, len(many))
		for _, e := range many {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// applicationFailure detects 2xx responses whose body reports a failure.
func applicationFailure(payload []byte) (bool, string) {
	var body struct {
		StatusMsg string `json:"statusMsg"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return false, ""
	}
	if strings.EqualFold(body.StatusMsg, "fail") || strings.EqualFold(body.StatusMsg, "error") {
		return true, body.Message
	}
	return false, ""
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
