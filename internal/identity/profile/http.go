package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// InternalTokenHeader authenticates service-to-service calls.
const InternalTokenHeader = "X-Internal-Token"

type Config struct {
	BaseURL       string
	InternalToken string
	Timeout       time.Duration // per call, defaults to 5s
	HTTPClient    *http.Client
}

type client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

func newClient(cfg Config) *client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.InternalToken,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one JSON call and decodes envelope data into out when out is
// non-nil. Remote error codes are mapped to this package's sentinels.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("profile: marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("profile: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(InternalTokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemote, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRemote, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: %s %s: status %d, undecodable body", ErrRemote, method, path, resp.StatusCode)
		}
	}

	if resp.StatusCode >= 300 || env.Code != 0 {
		return mapRemoteError(resp.StatusCode, env)
	}

	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return fmt.Errorf("%w: %s %s: empty data", ErrRemote, method, path)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrRemote, err)
		}
	}
	return nil
}

func mapRemoteError(status int, env envelope) error {
	switch env.Code {
	case codePartnerMissing:
		return fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	case codeValidation:
		return fmt.Errorf("%w: %s", ErrDuplicateBusinessNumber, env.Message)
	case codeStorage, codeUserStorage:
		return fmt.Errorf("%w: %s", ErrStorage, env.Message)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: status 404", ErrNotFound)
	}
	return fmt.Errorf("%w: status %d code %d: %s", ErrRemote, status, env.Code, env.Message)
}
