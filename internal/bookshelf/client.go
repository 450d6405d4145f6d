package bookshelf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// API is the set of catalog calls the views make. *Client implements it.
type API interface {
	Login(ctx context.Context, creds Credentials) (AuthResponse, error)
	Register(ctx context.Context, reg Registration) error
	ListBooks(ctx context.Context, query ListQuery) (BookPage, error)
	GetBook(ctx context.Context, id string) (Book, error)
	CreateBook(ctx context.Context, input BookInput) (Book, error)
	UpdateBook(ctx context.Context, id string, input BookInput) (Book, error)
	DeleteBook(ctx context.Context, id string) error
	MyBooks(ctx context.Context) ([]Book, error)
	BookReviews(ctx context.Context, bookID string) ([]Review, error)
	CreateReview(ctx context.Context, input ReviewInput) (Review, error)
	MyReviews(ctx context.Context) ([]Review, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the catalog REST API.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	userAgent      string
	tokens         TokenSource
	onUnauthorized func()
	logger         *zap.Logger
}

const (
	// DefaultBaseURL is the API root used when none is configured.
	DefaultBaseURL   = "http://localhost:5000/api"
	defaultUserAgent = "folio/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 64 * 1024
)

// Option customises a Client.
type Option func(*Client)

// WithTokenSource attaches bearer tokens from src.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// WithUnauthorizedHandler registers fn to run when a request that carried a
// token comes back 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client rooted at baseURL, which includes the API path
// (for example http://localhost:5000/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login exchanges credentials for a token and user.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var payload AuthResponse
	if err := c.Post(ctx, "/auth/login", creds, &payload); err != nil {
		return AuthResponse{}, err
	}
	if payload.Token == "" || payload.User.ID == "" {
		return AuthResponse{}, fmt.Errorf("login response missing token or user")
	}
	return payload, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.Post(ctx, "/auth/register", reg, nil)
}

// ListBooks fetches one page of the catalog.
func (c *Client) ListBooks(ctx context.Context, query ListQuery) (BookPage, error) {
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	if genre := strings.TrimSpace(query.Genre); genre != "" {
		values.Set("genre", genre)
	}
	if sort := strings.TrimSpace(query.Sort); sort != "" {
		values.Set("sort", sort)
	}
	var payload BookPage
	if err := c.Get(ctx, "/books", values, &payload); err != nil {
		return BookPage{}, err
	}
	return payload, nil
}

// GetBook fetches a single book. A null document yields ErrNotFound.
func (c *Client) GetBook(ctx context.Context, id string) (Book, error) {
	if strings.TrimSpace(id) == "" {
		return Book{}, fmt.Errorf("book id required")
	}
	var payload dataEnvelope[*Book]
	if err := c.Get(ctx, "/books/"+id, nil, &payload); err != nil {
		return Book{}, err
	}
	if payload.Data == nil {
		return Book{}, ErrNotFound
	}
	return *payload.Data, nil
}

// CreateBook adds a book owned by the current user.
func (c *Client) CreateBook(ctx context.Context, input BookInput) (Book, error) {
	var payload dataEnvelope[Book]
	if err := c.Post(ctx, "/books", input, &payload); err != nil {
		return Book{}, err
	}
	return payload.Data, nil
}

// UpdateBook replaces the editable fields of a book the user owns.
func (c *Client) UpdateBook(ctx context.Context, id string, input BookInput) (Book, error) {
	if strings.TrimSpace(id) == "" {
		return Book{}, fmt.Errorf("book id required")
	}
	var payload dataEnvelope[Book]
	if err := c.Put(ctx, "/books/"+id, input, &payload); err != nil {
		return Book{}, err
	}
	return payload.Data, nil
}

// DeleteBook removes a book the user owns. The server drops its reviews too.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("book id required")
	}
	return c.Delete(ctx, "/books/"+id, nil)
}

// MyBooks lists books added by the current user.
func (c *Client) MyBooks(ctx context.Context) ([]Book, error) {
	var payload dataEnvelope[[]Book]
	if err := c.Get(ctx, "/books/user/me", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// BookReviews lists reviews for a book.
func (c *Client) BookReviews(ctx context.Context, bookID string) ([]Review, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, fmt.Errorf("book id required")
	}
	var payload dataEnvelope[[]Review]
	if err := c.Get(ctx, "/reviews/book/"+bookID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// CreateReview posts a review for a book.
func (c *Client) CreateReview(ctx context.Context, input ReviewInput) (Review, error) {
	var payload dataEnvelope[Review]
	if err := c.Post(ctx, "/reviews", input, &payload); err != nil {
		return Review{}, err
	}
	return payload.Data, nil
}

// MyReviews lists reviews written by the current user.
func (c *Client) MyReviews(ctx context.Context) ([]Review, error) {
	var payload dataEnvelope[[]Review]
	if err := c.Get(ctx, "/reviews/user", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// Get issues a GET and decodes the response into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, dest)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.resolve(path, query)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	authenticated := false
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("api request failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, readErrorMessage(resp.Body))
		log.Warn("api request rejected", zap.String("message", apiErr.Message))
		if apiErr.Unauthorized() && authenticated && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}
	log.Debug("api request")

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload errorBody
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
