package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

// BootstrapTokenHeader carries the one-time bootstrap secret.
const BootstrapTokenHeader = "X-Bootstrap-Token"

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 1_000_000
)

type AdminHandler struct {
	AdminService   *service.AdminService
	PartnerService *service.PartnerService
}

// HandleBootstrap godoc
//
//	@Summary		Bootstrap the first admin
//	@Description	Creates the first SUPER_ADMIN. Only registered when a bootstrap token is configured and only succeeds while no admin exists.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string								true	"Bootstrap token"
//	@Param			request				body		identitysdk.AdminBootstrapRequest	true	"Admin account"
//	@Success		201					{object}	identitysdk.Response[identitysdk.AdminBootstrapResponse]
//	@Failure		401					{object}	httpx.Envelope	"Missing or wrong bootstrap token"
//	@Failure		409					{object}	httpx.Envelope	"Already bootstrapped"
//	@Router			/auth/admins/bootstrap [post].
func (h *AdminHandler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(BootstrapTokenHeader)
	if token == "" {
		writeError(w, r, apperr.Unauthorized.WithMessage("Bootstrap token is required in X-Bootstrap-Token header"))
		return
	}

	var req identitysdk.AdminBootstrapRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := h.AdminService.Bootstrap(r.Context(), token, service.AdminSignup{
		LoginID:    strings.TrimSpace(req.LoginID),
		Password:   req.Password,
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Phone:      strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusCreated, "Admin account created", identitysdk.AdminBootstrapResponse{AccountID: id.String()})
}

// HandleLogin godoc
//
//	@Summary		Admin login
//	@Description	Password login; otp is required once TOTP is enrolled
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.AdminLoginRequest	true	"Credentials"
//	@Success		200		{object}	identitysdk.Response[identitysdk.TokenResponse]
//	@Failure		401		{object}	httpx.Envelope	"Invalid credentials, OTP required or invalid OTP"
//	@Failure		429		{object}	httpx.Envelope	"Rate limited"
//	@Router			/auth/admins/login [post].
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.AdminLoginRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.AdminService.Login(r.Context(), strings.TrimSpace(req.LoginID), req.Password, strings.TrimSpace(req.OTP))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "Admin login successful", tokenResponse(&pair))
}

// HandleSignup godoc
//
//	@Summary		Register an admin
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		identitysdk.AdminSignupRequest	true	"Admin account"
//	@Success		201		{object}	identitysdk.Response[identitysdk.AdminBootstrapResponse]
//	@Failure		400		{object}	httpx.Envelope	"Validation failed"
//	@Failure		403		{object}	httpx.Envelope	"Caller is not a SUPER_ADMIN"
//	@Failure		409		{object}	httpx.Envelope	"Login id already exists"
//	@Router			/auth/admins/signup [post].
func (h *AdminHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.AdminSignupRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := h.AdminService.Register(r.Context(), service.AdminSignup{
		LoginID:    strings.TrimSpace(req.LoginID),
		Password:   req.Password,
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Phone:      strings.TrimSpace(req.Phone),
		AdminRole:  domain.AdminRole(req.AdminRole),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusCreated, "Admin account created", identitysdk.AdminBootstrapResponse{AccountID: id.String()})
}

// HandleEnrollTOTP godoc
//
//	@Summary		Start TOTP enrolment
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	identitysdk.Response[identitysdk.TOTPEnrollResponse]
//	@Failure		409	{object}	httpx.Envelope	"TOTP already enabled"
//	@Router			/auth/admins/mfa/enroll [post].
func (h *AdminHandler) HandleEnrollTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := callerAccountID(w, r)
	if !ok {
		return
	}

	enr, err := h.AdminService.EnrollTOTP(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "TOTP enrollment started", identitysdk.TOTPEnrollResponse{
		Secret: enr.Secret,
		URL:    enr.URL,
	})
}

// HandleConfirmTOTP godoc
//
//	@Summary		Confirm TOTP enrolment
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		identitysdk.TOTPConfirmRequest	true	"Current code"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		401		{object}	httpx.Envelope	"Invalid OTP"
//	@Router			/auth/admins/mfa/confirm [post].
func (h *AdminHandler) HandleConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := callerAccountID(w, r)
	if !ok {
		return
	}

	var req identitysdk.TOTPConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.AdminService.ConfirmTOTP(r.Context(), id, strings.TrimSpace(req.Code)); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusOK, "TOTP enabled", nil)
}

// HandleApprove godoc
//
//	@Summary		Approve a partner
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			accountId	path		string	true	"Partner account id"
//	@Success		200			{object}	httpx.Envelope
//	@Failure		404			{object}	httpx.Envelope	"Account not found"
//	@Failure		409			{object}	httpx.Envelope	"Account is not pending approval"
//	@Router			/auth/admins/partners/{accountId}/approval [post].
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("accountId"))
	if err != nil {
		writeError(w, r, apperr.InvalidRequest.WithMessage("Invalid account id"))
		return
	}

	if err := h.PartnerService.Approve(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusOK, "Partner approved", nil)
}

// HandleReject godoc
//
//	@Summary		Reject a partner
//	@Description	Records withdrawal history, deletes the account and the remote profile and notifies the partner
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			accountId	path		string								true	"Partner account id"
//	@Param			request		body		identitysdk.PartnerRejectionRequest	true	"Reason"
//	@Success		200			{object}	httpx.Envelope
//	@Failure		404			{object}	httpx.Envelope	"Account not found"
//	@Failure		409			{object}	httpx.Envelope	"Account is not pending approval"
//	@Router			/auth/admins/partners/{accountId}/rejection [post].
func (h *AdminHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("accountId"))
	if err != nil {
		writeError(w, r, apperr.InvalidRequest.WithMessage("Invalid account id"))
		return
	}

	var req identitysdk.PartnerRejectionRequest
	if !decode(w, r, &req) {
		return
	}

	var adminID *int64
	if caller, ok := httpx.IdentityFrom(r.Context()); ok {
		adminID = caller.AdminID
	}

	if err := h.PartnerService.Reject(r.Context(), id, strings.TrimSpace(req.Reason), adminID); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteOK(w, http.StatusOK, "Partner rejected and deleted", nil)
}

// HandlePending godoc
//
//	@Summary		List partners waiting for approval
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page	query		int	false	"Zero based page"	default(0)
//	@Param			size	query		int	false	"Page size"			default(10)
//	@Success		200		{object}	identitysdk.Response[[]identitysdk.PartnerPendingResponse]
//	@Failure		400		{object}	httpx.Envelope	"Invalid paging"
//	@Router			/auth/admins/partners/pending [get].
func (h *AdminHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	page, size, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, total, err := h.PartnerService.ListPending(r.Context(), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]identitysdk.PartnerPendingResponse, len(rows))
	for i, p := range rows {
		out[i] = identitysdk.PartnerPendingResponse{
			AccountID:   p.AccountID.String(),
			CreatedAt:   p.CreatedAt,
			Name:        p.Profile.Name,
			CompanyName: p.Profile.CompanyName,
			Address:     p.Profile.Address,
			Phone:       p.Profile.Phone,
			CompanyNum:  p.Profile.CompanyNum,
			BusinessNum: p.Profile.BusinessNum,
		}
	}

	httpx.WritePage(w, "Pending partners retrieved successfully", out, httpx.NewMeta(page, size, total))
}

func paging(r *http.Request) (page, size int, err error) {
	q := r.URL.Query()
	page, size = 0, defaultPageSize

	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 0 || page > maxPage {
			return 0, 0, apperr.InvalidRequest.WithMessage("page must be between 0 and 1000000")
		}
	}
	if v := q.Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size < 1 || size > maxPageSize {
			return 0, 0, apperr.InvalidRequest.WithMessage("size must be between 1 and 100")
		}
	}
	return page, size, nil
}

func callerAccountID(w http.ResponseWriter, r *http.Request) (idx.ID, bool) {
	caller, ok := httpx.IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized)
		return idx.Zero, false
	}
	id, err := idx.Parse(caller.AccountID)
	if err != nil {
		writeError(w, r, apperr.Unauthorized.Wrap(err))
		return idx.Zero, false
	}
	return id, true
}
