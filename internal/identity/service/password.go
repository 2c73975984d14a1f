package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

func checkPassword(ctx context.Context, password, hash string) error {
	err := cryptox.VerifyPassword(password, hash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		slogx.FromContext(ctx).Info("login rejected, wrong password")
		return apperr.InvalidCredentials
	default:
		slogx.FromContext(ctx).Error("stored password hash unusable", slog.Any("error", err))
		return apperr.Internal.Wrap(err)
	}
}
