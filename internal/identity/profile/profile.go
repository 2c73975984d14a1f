// Package profile talks to the services that own user, partner and admin
// profiles. Accounts only hold the numeric profile id those services return.
package profile

import (
	"context"
	"errors"
)

var (
	ErrNotFound                = errors.New("profile: not found")
	ErrDuplicateBusinessNumber = errors.New("profile: duplicate business number")
	ErrStorage                 = errors.New("profile: remote storage failure")
	ErrRemote                  = errors.New("profile: remote call failed")
)

// Remote envelope codes with a meaning on this side.
const (
	codeValidation     = 1501
	codePartnerMissing = 1504
	codeUserStorage    = 2301
	codeStorage        = 2501
)

type PartnerProfile struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	CompanyNum  string `json:"companyNum"`
	BusinessNum string `json:"businessNum"`
}

// PartnerSnapshot is the subset of a partner profile kept in withdrawal
// history.
type PartnerSnapshot struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
	BusinessNum string `json:"businessNum"`
}

func (p PartnerProfile) Snapshot() PartnerSnapshot {
	return PartnerSnapshot{
		Name:        p.Name,
		CompanyName: p.CompanyName,
		Phone:       p.Phone,
		BusinessNum: p.BusinessNum,
	}
}

type CreatePartnerRequest struct {
	AccountID string `json:"accountId"`
	PartnerProfile
}

type CreateUserRequest struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	FCMToken  string `json:"fcmToken,omitempty"`
}

type CreateAdminRequest struct {
	AccountID  string `json:"accountId"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

type PartnerClient interface {
	Create(ctx context.Context, req CreatePartnerRequest) (int64, error)
	Get(ctx context.Context, partnerID int64) (PartnerProfile, error)
	Delete(ctx context.Context, partnerID int64) error
}

type UserClient interface {
	Create(ctx context.Context, req CreateUserRequest) (int64, error)
}

type AdminClient interface {
	Create(ctx context.Context, req CreateAdminRequest) (int64, error)
}
