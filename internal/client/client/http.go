package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
)

const defaultTimeout = 10 * time.Second

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API at baseURL. A nil httpClient
// means a plain client with a 10s timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

type apiError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// statusError maps an error response onto the shared sentinels.
func statusError(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = common.ErrorValidation
	case http.StatusUnauthorized:
		sentinel = common.ErrorUnauthorized
	case http.StatusForbidden:
		sentinel = common.ErrorForbidden
	case http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case http.StatusTooManyRequests:
		sentinel = common.ErrRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		sentinel = ErrUnavailable
	default:
		sentinel = common.ErrorInternal
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// do sends a JSON request and decodes a JSON answer into out (when non-nil).
// It returns the raw response so callers can read cookies.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: t})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, statusError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	return err
}

func (c *HTTPClient) SendOtp(ctx context.Context, email string) (time.Time, error) {
	var out struct {
		OK        bool      `json:"ok"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/auth/otp/send", map[string]string{"email": email}, &out); err != nil {
		return time.Time{}, err
	}
	return out.ExpiresAt, nil
}

// VerifyOtp exchanges the code for a session and keeps the cookie value.
func (c *HTTPClient) VerifyOtp(ctx context.Context, email, code string) (*SessionUser, error) {
	var out struct {
		OK   bool         `json:"ok"`
		User *SessionUser `json:"user"`
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/otp/verify", map[string]string{"email": email, "code": code}, &out)
	if err != nil {
		return nil, err
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == common.SessionCookieName && ck.Value != "" {
			c.SetToken(ck.Value)
		}
	}
	if c.Token() == "" || out.User == nil {
		return nil, fmt.Errorf("%w: no session issued", common.ErrorUnauthorized)
	}
	return out.User, nil
}

// Session returns nil without error when the server does not recognize the
// stored token.
func (c *HTTPClient) Session(ctx context.Context) (*SessionUser, error) {
	var out struct {
		User *SessionUser `json:"user"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/auth/session", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout forgets the token even when the server cannot be reached.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *HTTPClient) CreateReport(ctx context.Context, in ReportInput) (*RemoteReport, error) {
	var out RemoteReport
	if _, err := c.do(ctx, http.MethodPost, "/reports", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListReports(ctx context.Context) ([]RemoteReport, error) {
	var out []RemoteReport
	if _, err := c.do(ctx, http.MethodGet, "/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateReport(ctx context.Context, id string, in ReportUpdate) (*RemoteReport, error) {
	var out RemoteReport
	if _, err := c.do(ctx, http.MethodPut, "/reports/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteReport(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/reports/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *HTTPClient) Presign(ctx context.Context, in PresignRequest) (*PresignResult, error) {
	var out PresignResult
	if _, err := c.do(ctx, http.MethodPost, "/files/presign", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
