package identitysdk

import (
	"context"
	"net/http"
	"net/url"
)

// PartnerSignup registers a partner and triggers the verification email.
func (c *Client) PartnerSignup(ctx context.Context, req PartnerSignupRequest) error {
	_, err := do[any](ctx, c, http.MethodPost, "/auth/partners/signup", req, nil)
	return err
}

// VerifyPartnerEmail consumes a verification token from the emailed link.
func (c *Client) VerifyPartnerEmail(ctx context.Context, token string) error {
	_, err := do[any](ctx, c, http.MethodGet, "/auth/partners/verify?token="+url.QueryEscape(token), nil, nil)
	return err
}

// PartnerLogin authenticates an ACTIVE partner.
func (c *Client) PartnerLogin(ctx context.Context, req PartnerLoginRequest) (*TokenResponse, error) {
	resp, err := do[TokenResponse](ctx, c, http.MethodPost, "/auth/partners/login", req, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
