package identitysdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/identity/pkg/httpx"
)

// BootstrapAdmin creates the first SUPER_ADMIN.
func (c *Client) BootstrapAdmin(ctx context.Context, token string, req AdminBootstrapRequest) (*AdminBootstrapResponse, error) {
	resp, err := do[AdminBootstrapResponse](ctx, c, http.MethodPost, "/auth/admins/bootstrap", req,
		map[string]string{"X-Bootstrap-Token": token})
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// AdminLogin authenticates an admin.
func (c *Client) AdminLogin(ctx context.Context, req AdminLoginRequest) (*TokenResponse, error) {
	resp, err := do[TokenResponse](ctx, c, http.MethodPost, "/auth/admins/login", req, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// AdminSignup registers another admin. accessToken must belong to a SUPER_ADMIN.
func (c *Client) AdminSignup(ctx context.Context, accessToken string, req AdminSignupRequest) error {
	_, err := do[any](ctx, c, http.MethodPost, "/auth/admins/signup", req, bearer(accessToken))
	return err
}

// EnrollTOTP starts second factor enrolment for the calling admin.
func (c *Client) EnrollTOTP(ctx context.Context, accessToken string) (*TOTPEnrollResponse, error) {
	resp, err := do[TOTPEnrollResponse](ctx, c, http.MethodPost, "/auth/admins/mfa/enroll", nil, bearer(accessToken))
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ConfirmTOTP activates the enrolled secret.
func (c *Client) ConfirmTOTP(ctx context.Context, accessToken, code string) error {
	_, err := do[any](ctx, c, http.MethodPost, "/auth/admins/mfa/confirm", TOTPConfirmRequest{Code: code}, bearer(accessToken))
	return err
}

// ApprovePartner moves a pending partner to ACTIVE.
func (c *Client) ApprovePartner(ctx context.Context, accessToken, accountID string) error {
	path := fmt.Sprintf("/auth/admins/partners/%s/approval", url.PathEscape(accountID))
	_, err := do[any](ctx, c, http.MethodPost, path, nil, bearer(accessToken))
	return err
}

// RejectPartner removes a pending partner and records the reason.
func (c *Client) RejectPartner(ctx context.Context, accessToken, accountID, reason string) error {
	path := fmt.Sprintf("/auth/admins/partners/%s/rejection", url.PathEscape(accountID))
	_, err := do[any](ctx, c, http.MethodPost, path, PartnerRejectionRequest{Reason: reason}, bearer(accessToken))
	return err
}

// PendingPartners lists partners awaiting approval, oldest first.
func (c *Client) PendingPartners(ctx context.Context, accessToken string, page, size int) ([]PartnerPendingResponse, *httpx.Meta, error) {
	path := fmt.Sprintf("/auth/admins/partners/pending?page=%d&size=%d", page, size)
	resp, err := do[[]PartnerPendingResponse](ctx, c, http.MethodGet, path, nil, bearer(accessToken))
	if err != nil {
		return nil, nil, err
	}
	return resp.Data, resp.Meta, nil
}
