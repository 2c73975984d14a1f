package identitysdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AuthorizeURL asks the service for a provider authorization URL. The state
// embedded in it is single use.
func (c *Client) AuthorizeURL(ctx context.Context, provider string) (string, error) {
	resp, err := do[string](ctx, c, http.MethodGet, "/auth/oauth2/authorize/"+url.PathEscape(provider), nil, nil)
	if err != nil {
		return "", err
	}
	return resp.Data, nil
}

// Callback replays the provider redirect against the service.
func (c *Client) Callback(ctx context.Context, provider, code, state string) (*SocialAuthResponse, error) {
	q := url.Values{"code": {code}, "state": {state}}
	path := fmt.Sprintf("/auth/oauth2/callback/%s?%s", url.PathEscape(provider), q.Encode())

	resp, err := do[SocialAuthResponse](ctx, c, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CompleteProfile finishes a social sign-up and returns the first tokens.
func (c *Client) CompleteProfile(ctx context.Context, req UserProfileCompletionRequest) (*TokenResponse, error) {
	resp, err := do[TokenResponse](ctx, c, http.MethodPost, "/auth/users/profile/complete", req, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Refresh rotates a refresh token. The old token is invalid afterwards.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := do[TokenResponse](ctx, c, http.MethodPost, "/auth/token/refresh", nil, bearer(refreshToken))
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Livez reports process liveness.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	resp, err := do[HealthResponse](ctx, c, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Readyz reports whether the database and credential store are reachable.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	resp, err := do[HealthResponse](ctx, c, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
