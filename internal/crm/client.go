package crm

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LeadFetcher defines the calls the lead queries need.
// This interface is implemented by *Client and can be used for testing.
type LeadFetcher interface {
	ListLeads(ctx context.Context, filter Filter) ([]Lead, error)
	LeadDetails(ctx context.Context, id int64) (*Lead, error)
}

// Ensure Client implements LeadFetcher at compile time.
var _ LeadFetcher = (*Client)(nil)

// Client talks to the CRM REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
	logger    *zap.Logger
}

// Options configure a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
	// Transport overrides the HTTP round tripper, mostly for tests.
	Transport http.RoundTripper
}

const (
	defaultBaseURL   = "https://ulg.unitytelco.com/api/v1"
	defaultUserAgent = "leaddeck/0.1"
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 4 << 10
)

// NewClient builds a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		token:     strings.TrimSpace(opts.Token),
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// Filter selects the lead list returned by ListLeads.
type Filter struct {
	CanAllocate bool
	UserID      int64
	Company     int64
	Page        int // zero means the first page
}

type listRequest struct {
	CanAllocate bool  `json:"can_allocate"`
	UserID      int64 `json:"user_id"`
	Company     int64 `json:"company"`
}

type listResponse struct {
	Results struct {
		Accounts []Lead `json:"accounts"`
	} `json:"results"`
}

// ListLeads posts the filter to the accounts endpoint and returns the
// accounts collection in server order.
func (c *Client) ListLeads(ctx context.Context, filter Filter) ([]Lead, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	rel := &url.URL{Path: "leads/user/accounts", RawQuery: values.Encode()}

	body := listRequest{
		CanAllocate: filter.CanAllocate,
		UserID:      filter.UserID,
		Company:     filter.Company,
	}
	var payload listResponse
	if err := c.doURL(ctx, http.MethodPost, rel, body, &payload); err != nil {
		return nil, err
	}
	if payload.Results.Accounts == nil {
		return []Lead{}, nil
	}
	return payload.Results.Accounts, nil
}

// LeadDetails fetches one lead by id and returns the full entity.
func (c *Client) LeadDetails(ctx context.Context, id int64) (*Lead, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return nil, fmt.Errorf("lead id required")
	}
	rel := &url.URL{Path: "leads/lead/view/" + strconv.FormatInt(id, 10)}
	var payload Lead
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, in any, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("crm request failed",
			zap.String("method", method),
			zap.String("path", rel.Path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("crm request",
		zap.String("method", method),
		zap.String("path", rel.Path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: "/" + rel.Path, Code: resp.StatusCode, Body: raw}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a response with a non-success status code.
type StatusError struct {
	Path string
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// HTTPStatus exposes the status code to error classifiers.
func (e *StatusError) HTTPStatus() int { return e.Code }

// HTTPBody exposes the (truncated) response body.
func (e *StatusError) HTTPBody() []byte { return e.Body }

// parseBaseURL normalizes the API root so relative endpoint paths resolve
// beneath it.
func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
