package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
)

// Pinger is a dependency readyz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LivezHandler godoc
//
//	@Summary		Liveness check
//	@Description	Always 200 while the process is serving, reports uptime and version
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	identitysdk.Response[identitysdk.HealthResponse]
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteOK(w, http.StatusOK, "ok", identitysdk.HealthResponse{
			Status: "ok",
			Checks: map[string]string{
				"uptime":  time.Since(startTime).Truncate(time.Second).String(),
				"version": version,
			},
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Checks the account database and the credential store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	identitysdk.Response[identitysdk.HealthResponse]
//	@Failure		503	{object}	identitysdk.Response[identitysdk.HealthResponse]
//	@Router			/readyz [get].
func ReadyzHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := identitysdk.HealthResponse{Status: "ok", Checks: make(map[string]string, len(deps))}
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				resp.Checks[name] = "error: " + err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}

		if resp.Status != "ok" {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.Envelope{
				Code:    apperr.Internal.Code,
				Message: "Service not ready",
				Data:    resp,
			})
			return
		}
		httpx.WriteOK(w, http.StatusOK, "ok", resp)
	}
}
