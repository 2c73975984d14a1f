package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
	"github.com/aussiebroadwan/identity/pkg/idx"
)

type SocialHandler struct {
	OAuthService *service.OAuthService
	UserService  *service.UserService
}

// HandleAuthorize godoc
//
//	@Summary		Build a social login URL
//	@Description	Stores a single-use state and PKCE verifier and returns the provider authorization URL
//	@Tags			Social
//	@Produce		json
//	@Param			provider	path		string	true	"naver, kakao or google"
//	@Success		200			{object}	identitysdk.Response[string]
//	@Failure		400			{object}	httpx.Envelope	"Provider not supported"
//	@Failure		500			{object}	httpx.Envelope
//	@Router			/auth/oauth2/authorize/{provider} [get].
func (h *SocialHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.OAuthService.BuildAuthURL(r.Context(), r.PathValue("provider"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "Social authentication URL generated", authURL)
}

// HandleCallback godoc
//
//	@Summary		Finish a social login
//	@Description	Consumes the state, exchanges the code and either logs the account in or asks for profile completion
//	@Tags			Social
//	@Produce		json
//	@Param			provider	path		string	true	"naver, kakao or google"
//	@Param			code		query		string	true	"Authorization code"
//	@Param			state		query		string	true	"State returned by the provider"
//	@Success		200			{object}	identitysdk.Response[identitysdk.SocialAuthResponse]
//	@Failure		400			{object}	httpx.Envelope	"Invalid state or unsupported provider"
//	@Failure		500			{object}	httpx.Envelope	"Provider call failed"
//	@Router			/auth/oauth2/callback/{provider} [get].
func (h *SocialHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		writeError(w, r, apperr.InvalidRequest.WithMessage("Missing authorization code"))
		return
	}

	res, err := h.OAuthService.HandleCallback(r.Context(), r.PathValue("provider"), code, q.Get("state"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !res.Active {
		httpx.WriteOK(w, http.StatusOK, "User profile not completed", identitysdk.SocialAuthResponse{
			Status:    identitysdk.SocialStatusIncomplete,
			AccountID: res.AccountID,
		})
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "User login successful", identitysdk.SocialAuthResponse{
		Status: identitysdk.SocialStatusSuccess,
		Tokens: tokenResponse(res.Tokens),
	})
}

// HandleCompleteProfile godoc
//
//	@Summary		Complete a social sign-up
//	@Description	Creates the user profile for an account waiting for it, activates the account and issues tokens
//	@Tags			Social
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.UserProfileCompletionRequest	true	"Profile"
//	@Success		200		{object}	identitysdk.Response[identitysdk.TokenResponse]
//	@Failure		400		{object}	httpx.Envelope	"Validation failed"
//	@Failure		404		{object}	httpx.Envelope	"Account not found"
//	@Failure		409		{object}	httpx.Envelope	"Profile already completed"
//	@Router			/auth/users/profile/complete [post].
func (h *SocialHandler) HandleCompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.UserProfileCompletionRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := idx.Parse(req.AccountID)
	if err != nil {
		writeError(w, r, apperr.InvalidRequest.Wrap(err))
		return
	}

	pair, err := h.UserService.CompleteProfile(r.Context(), id, service.UserProfile{
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		FCMToken: strings.TrimSpace(req.FCMToken),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "User profile completed + User login successful", tokenResponse(&pair))
}

func tokenResponse(p *service.TokenPair) *identitysdk.TokenResponse {
	if p == nil {
		return nil
	}
	return &identitysdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
	}
}
