package profile

import (
	"context"
	"net/http"
	"strconv"
)

// HTTPPartnerClient is the partner profile service client.
type HTTPPartnerClient struct{ c *client }

func NewPartnerClient(cfg Config) *HTTPPartnerClient {
	return &HTTPPartnerClient{c: newClient(cfg)}
}

func (p *HTTPPartnerClient) Create(ctx context.Context, req CreatePartnerRequest) (int64, error) {
	var id int64
	err := p.c.do(ctx, http.MethodPost, "/partners/profile", req, &id)
	return id, err
}

func (p *HTTPPartnerClient) Get(ctx context.Context, partnerID int64) (PartnerProfile, error) {
	var out PartnerProfile
	err := p.c.do(ctx, http.MethodGet, "/partners/profile/"+strconv.FormatInt(partnerID, 10), nil, &out)
	return out, err
}

func (p *HTTPPartnerClient) Delete(ctx context.Context, partnerID int64) error {
	return p.c.do(ctx, http.MethodDelete, "/partners/profile/"+strconv.FormatInt(partnerID, 10), nil, nil)
}

// HTTPUserClient is the end-user profile service client.
type HTTPUserClient struct{ c *client }

func NewUserClient(cfg Config) *HTTPUserClient {
	return &HTTPUserClient{c: newClient(cfg)}
}

func (u *HTTPUserClient) Create(ctx context.Context, req CreateUserRequest) (int64, error) {
	var id int64
	err := u.c.do(ctx, http.MethodPost, "/users/profile", req, &id)
	return id, err
}

// HTTPAdminClient is the admin profile service client.
type HTTPAdminClient struct{ c *client }

func NewAdminClient(cfg Config) *HTTPAdminClient {
	return &HTTPAdminClient{c: newClient(cfg)}
}

func (a *HTTPAdminClient) Create(ctx context.Context, req CreateAdminRequest) (int64, error) {
	var id int64
	err := a.c.do(ctx, http.MethodPost, "/admins/profile", req, &id)
	return id, err
}
