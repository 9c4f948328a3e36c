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
	"time"

	"github.com/dmitrijs2005/docsum/internal/common"
	"github.com/dmitrijs2005/docsum/internal/logging"
	"github.com/google/uuid"
)

// TokenSource supplies the current bearer token, "" when signed out.
type TokenSource interface {
	Token() string
}

// AuthFailureHandler is told when the backend rejected the token.
type AuthFailureHandler interface {
	Invalidate(ctx context.Context)
}

type Gateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	onAuthFail AuthFailureHandler
	log        logging.Logger
	timeout    time.Duration
}

type GatewayOption func(*Gateway)

func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) { g.httpClient = c }
}

// WithTimeout bounds every call. It applies to the client passed with
// WithHTTPClient too, in any option order, without modifying that client.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

func NewGateway(baseURL string, tokens TokenSource, onAuthFail AuthFailureHandler, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		onAuthFail: onAuthFail,
		log:        logging.Nop(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.timeout > 0 {
		c := *g.httpClient
		c.Timeout = g.timeout
		g.httpClient = &c
	}
	return g
}

// BaseURL returns the backend base URL without a trailing slash.
func (g *Gateway) BaseURL() string { return g.baseURL }

// URL resolves endpoint against the base URL. Absolute http(s) URLs are
// returned unchanged.
func (g *Gateway) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	return g.baseURL + endpoint
}

type request struct {
	noAuth      bool
	headers     http.Header
	body        io.Reader
	contentType string
	query       url.Values
	encodeErr   error
}

// Option customizes a single call.
type Option func(*request)

// WithoutAuth sends the call without a token and without requiring one.
func WithoutAuth() Option {
	return func(r *request) { r.noAuth = true }
}

func WithHeader(key, value string) Option {
	return func(r *request) { r.headers.Set(key, value) }
}

// WithJSON serializes v as the request body.
func WithJSON(v any) Option {
	return func(r *request) {
		data, err := json.Marshal(v)
		if err != nil {
			r.encodeErr = &APIError{Kind: ErrNetwork, Code: CodeNetwork, Message: "encode request body: " + err.Error()}
			return
		}
		r.body = bytes.NewReader(data)
		r.contentType = common.ContentTypeJSON
	}
}

// WithBody sends body as-is with the given content type, e.g. a multipart
// form.
func WithBody(body io.Reader, contentType string) Option {
	return func(r *request) {
		r.body = body
		r.contentType = contentType
	}
}

func WithQuery(q url.Values) Option {
	return func(r *request) {
		for k, vs := range q {
			for _, v := range vs {
				r.query.Add(k, v)
			}
		}
	}
}

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &APIError{Kind: ErrNetwork, Status: r.Status, Code: CodeNetwork, Message: err.Error()}
	}
	return nil
}

// errorBody is the backend's error shape.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Do sends one request. Every failure is an *APIError.
func (g *Gateway) Do(ctx context.Context, method, endpoint string, opts ...Option) (*Response, error) {
	req := &request{headers: http.Header{}, query: url.Values{}}
	for _, o := range opts {
		o(req)
	}
	if req.encodeErr != nil {
		return nil, req.encodeErr
	}

	var token string
	if !req.noAuth {
		token = g.tokens.Token()
		if token == "" {
			g.log.Warn(ctx, "no auth token available for API call", "endpoint", endpoint)
			return nil, &APIError{Kind: ErrAuthRequired, Code: CodeAuthRequired}
		}
	}

	target := g.URL(endpoint)
	if len(req.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, req.body)
	if err != nil {
		return nil, &APIError{Kind: ErrNetwork, Code: CodeNetwork, Message: err.Error()}
	}

	contentType := req.contentType
	if contentType == "" {
		contentType = common.ContentTypeJSON
	}
	httpReq.Header.Set(common.ContentTypeHeaderName, contentType)
	if token != "" {
		httpReq.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(common.RequestIDHeaderName, requestID)
	for k, vs := range req.headers {
		httpReq.Header[k] = vs
	}

	log := g.log.With("method", method, "url", target, "request_id", requestID)
	log.Debug(ctx, "api call")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error(ctx, "api call failed", "error", err)
		return nil, &APIError{Kind: ErrNetwork, Code: CodeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	// Calls sent without a token can't invalidate the session.
	if resp.StatusCode == http.StatusUnauthorized && !req.noAuth {
		log.Warn(ctx, "authentication failed, clearing session")
		if g.onAuthFail != nil {
			g.onAuthFail.Invalidate(ctx)
		}
		return nil, &APIError{Kind: ErrAuthFailed, Status: resp.StatusCode, Code: CodeAuthFailed}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error(ctx, "failed to read response", "error", err)
		return nil, &APIError{Kind: ErrNetwork, Status: resp.StatusCode, Code: CodeNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, body)
		log.Warn(ctx, "api error", "status", resp.StatusCode, "error", apiErr.Code, "message", apiErr.Message)
		return nil, apiErr
	}

	log.Debug(ctx, "api call succeeded", "status", resp.StatusCode)
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{Kind: ErrAPI, Status: status, Code: CodeAPI}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = MessageNetwork
		return apiErr
	}
	if eb.Error != "" {
		apiErr.Code = eb.Error
	}
	apiErr.Message = eb.Message
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", status)
	}
	return apiErr
}

func (g *Gateway) Get(ctx context.Context, endpoint string, opts ...Option) (*Response, error) {
	return g.Do(ctx, http.MethodGet, endpoint, opts...)
}

// Post sends body as JSON; a nil body sends no body.
func (g *Gateway) Post(ctx context.Context, endpoint string, body any, opts ...Option) (*Response, error) {
	return g.Do(ctx, http.MethodPost, endpoint, withOptionalJSON(body, opts)...)
}

func (g *Gateway) Put(ctx context.Context, endpoint string, body any, opts ...Option) (*Response, error) {
	return g.Do(ctx, http.MethodPut, endpoint, withOptionalJSON(body, opts)...)
}

func (g *Gateway) Delete(ctx context.Context, endpoint string, opts ...Option) (*Response, error) {
	return g.Do(ctx, http.MethodDelete, endpoint, opts...)
}

func withOptionalJSON(body any, opts []Option) []Option {
	if body == nil {
		return opts
	}
	return append([]Option{WithJSON(body)}, opts...)
}
