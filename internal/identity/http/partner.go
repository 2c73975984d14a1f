package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/profile"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
)

type PartnerHandler struct {
	PartnerService *service.PartnerService
}

// HandleSignup godoc
//
//	@Summary		Partner sign-up
//	@Description	Creates the partner account and remote profile, then emails a verification link. The account waits for email verification.
//	@Tags			Partner
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.PartnerSignupRequest	true	"Sign-up form"
//	@Success		201		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope	"Validation failed"
//	@Failure		409		{object}	httpx.Envelope	"Login id or business number already registered"
//	@Failure		500		{object}	httpx.Envelope	"Profile service or mail failure"
//	@Router			/auth/partners/signup [post].
func (h *PartnerHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.PartnerSignupRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := h.PartnerService.Register(r.Context(), service.PartnerSignup{
		LoginID:  strings.TrimSpace(req.LoginID),
		Password: req.Password,
		Profile: profile.PartnerProfile{
			Name:        strings.TrimSpace(req.Name),
			CompanyName: strings.TrimSpace(req.CompanyName),
			Address:     strings.TrimSpace(req.Address),
			Phone:       strings.TrimSpace(req.Phone),
			CompanyNum:  strings.TrimSpace(req.CompanyNum),
			BusinessNum: strings.TrimSpace(req.BusinessNum),
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusCreated, "Partner account created + Verification email sent", nil)
}

// HandleVerify godoc
//
//	@Summary		Verify a partner email
//	@Description	Consumes the emailed token and moves the account to admin review. A token works once.
//	@Tags			Partner
//	@Produce		json
//	@Param			token	query		string	true	"Verification token"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope	"Invalid or expired token"
//	@Router			/auth/partners/verify [get].
func (h *PartnerHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, r, apperr.InvalidVerificationToken)
		return
	}

	if err := h.PartnerService.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusOK, "Email verified + Waiting for admin approval", nil)
}

// HandleLogin godoc
//
//	@Summary		Partner login
//	@Tags			Partner
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.PartnerLoginRequest	true	"Credentials"
//	@Success		200		{object}	identitysdk.Response[identitysdk.TokenResponse]
//	@Failure		401		{object}	httpx.Envelope	"Invalid credentials"
//	@Failure		403		{object}	httpx.Envelope	"Account not active"
//	@Failure		429		{object}	httpx.Envelope	"Rate limited"
//	@Router			/auth/partners/login [post].
func (h *PartnerHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.PartnerLoginRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.PartnerService.Login(r.Context(), strings.TrimSpace(req.LoginID), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "Partner login successful", tokenResponse(&pair))
}
