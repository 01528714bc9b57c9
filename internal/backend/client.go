package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthvault/auth/internal/domain"
	"github.com/healthvault/auth/pkg/logger"
)

// Client talks to the remote HealthVault auth service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out struct {
		User *domain.User `json:"user"`
	}
	status, err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from auth service", status)
	}
	return out.User, nil
}

func (c *Client) Register(ctx context.Context, req *domain.RegisterRequest) (*Result, error) {
	var out Result
	if err := c.call(ctx, http.MethodPost, "/v1/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyRegistration(ctx context.Context, email, otp string) (*VerifyResult, error) {
	body := map[string]string{"email": email, "otp": otp}
	var out VerifyResult
	if err := c.call(ctx, http.MethodPost, "/v1/auth/register/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendOTP(ctx context.Context, email string) (*Result, error) {
	req := &domain.LoginRequest{Email: email}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return &Result{Success: false, Message: "Enter a valid email address"}, nil
	}

	var out Result
	if err := c.call(ctx, http.MethodPost, "/v1/auth/otp/request", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error) {
	body := map[string]string{"email": email, "otp": otp}
	var out VerifyResult
	if err := c.call(ctx, http.MethodPost, "/v1/auth/otp/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d from auth service", status)
	}
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID int64, updates *domain.ProfileUpdate) (*Result, error) {
	path := fmt.Sprintf("/v1/auth/users/%d/profile", userID)
	var out Result
	if err := c.call(ctx, http.MethodPatch, path, updates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call runs a request whose response body always carries {success, message}.
// Backend-reported failures (4xx with an {error} body) are folded into the
// result rather than returned as Go errors.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	status, err := c.do(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("auth service error: status %d", status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		if token, err := c.tokens.Load(ctx); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		} else if err != nil {
			logger.WarnContext(ctx, "Failed to load session token", "error", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("auth service request failed: %w", err)
	}
	defer resp.Body.Close()

	if out == nil {
		return resp.StatusCode, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		// Failures come either as {success:false, message} or as the
		// service's {error, code} shape; fold both into the result.
		_ = json.Unmarshal(raw, out)
		if r, ok := out.(failable); ok && r.message() == "" {
			var apiErr struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
				r.setFailure(apiErr.Error)
			}
		}
		return resp.StatusCode, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

type failable interface {
	message() string
	setFailure(string)
}

func (r *Result) message() string { return r.Message }

func (r *Result) setFailure(message string) {
	r.Success = false
	r.Message = message
}
