package http

import (
	"net/http"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/httpx"
)

type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP rotates a refresh token.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges the current refresh token, sent as a bearer token, for a new pair. The old refresh token stops working.
//	@Tags			Token
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer {refreshToken}"
//	@Success		200				{object}	identitysdk.Response[identitysdk.TokenResponse]
//	@Failure		401				{object}	httpx.Envelope	"Invalid, unknown or superseded refresh token"
//	@Router			/auth/token/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ok := httpx.BearerToken(r)
	if !ok {
		writeError(w, r, apperr.RefreshTokenInvalid.WithMessage("Refresh token is required in the Authorization header"))
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, http.StatusOK, "Refresh successful", tokenResponse(&pair))
}
