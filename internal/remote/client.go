package remote

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

	"github.com/phrazzld/medinodus/internal/platform/logger"
	"github.com/phrazzld/medinodus/internal/redact"
)

// Endpoint paths relative to the base URL.
const (
	PathLogin         = "/auth/login"
	PathRegister      = "/auth/register"
	PathLogout        = "/auth/logout"
	PathMedicalGet    = "/med/infoget"
	PathMedicalUpdate = "/med/infoupdate"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the backend. It implements AuthService and MedicalService.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var (
	_ AuthService    = (*Client)(nil)
	_ MedicalService = (*Client)(nil)
)

// NewClient creates a Client for baseURL (e.g. "http://localhost:8000/api/v1").
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "remote_client"),
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Login implements AuthService.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, PathLogin, "", loginRequest{Email: email, Password: password}, &res)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if res.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("login: response has no access token")
	}
	return res, nil
}

// Register implements AuthService.
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	body := registerRequest{Email: email, Password: password, FullName: fullName}
	if err := c.do(ctx, http.MethodPost, PathRegister, "", body, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout implements AuthService. A token the server no longer knows is
// treated as already logged out.
func (c *Client) Logout(ctx context.Context, token string) error {
	err := c.do(ctx, http.MethodPost, PathLogout, token, nil, nil)
	if err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		return nil
	}
	return fmt.Errorf("logout: %w", err)
}

// GetMedicalHistory implements MedicalService.
func (c *Client) GetMedicalHistory(ctx context.Context, token string) (MedicalHistory, error) {
	var h MedicalHistory
	if err := c.do(ctx, http.MethodGet, PathMedicalGet, token, nil, &h); err != nil {
		return MedicalHistory{}, fmt.Errorf("get medical history: %w", err)
	}
	return h, nil
}

// UpdateMedicalHistory implements MedicalService.
func (c *Client) UpdateMedicalHistory(ctx context.Context, token string, history MedicalHistory) error {
	if err := c.do(ctx, http.MethodPost, PathMedicalUpdate, token, history, nil); err != nil {
		return fmt.Errorf("update medical history: %w", err)
	}
	return nil
}

// do sends one JSON request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.logFor(ctx)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("request failed", "method", method, "path", path, "error", redact.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// logFor prefers a request-scoped logger carried by ctx.
func (c *Client) logFor(ctx context.Context) *slog.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l.With("component", "remote_client")
	}
	return c.logger
}

// errorBody covers both FastAPI ({"detail": ...}) and plain ({"error": ...})
// error documents.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		var detail string
		switch {
		case json.Unmarshal(eb.Detail, &detail) == nil && detail != "":
			apiErr.Message = detail
		case len(eb.Detail) > 0 && string(eb.Detail) != "null":
			// validation errors arrive as a list of objects
			apiErr.Message = string(eb.Detail)
		default:
			apiErr.Message = eb.Error
		}
	}
	return apiErr
}
