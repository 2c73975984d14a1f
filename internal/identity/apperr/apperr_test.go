package apperr_test

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
)

func TestWrapKeepsCodeAndCause(t *testing.T) {
	err := apperr.DBSaveFailure.Wrap(sql.ErrConnDone)

	require.ErrorIs(t, err, apperr.DBSaveFailure)
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NotErrorIs(t, err, apperr.DBRetrieveFailure)
	require.Equal(t, 2002, err.Code)

	// the sentinel itself is untouched
	require.Nil(t, errors.Unwrap(apperr.DBSaveFailure))
}

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("saga: %w", apperr.AccountNotFound)
	e := apperr.From(wrapped)
	require.Equal(t, 1006, e.Code)
	require.Equal(t, http.StatusNotFound, e.Status)

	e = apperr.From(errors.New("boom"))
	require.Equal(t, 2999, e.Code)
	require.Equal(t, apperr.Infrastructure, e.Kind)

	require.Nil(t, apperr.From(nil))
}

func TestKinds(t *testing.T) {
	require.True(t, apperr.IsBusiness(apperr.InvalidCredentials))
	require.False(t, apperr.IsBusiness(apperr.EmailSendFailure))
	require.False(t, apperr.IsBusiness(errors.New("x")))

	require.Equal(t, 1016, apperr.Unauthorized.Code)
	require.Equal(t, 1022, apperr.TooManyRequests.Code)
}

func TestWithMessage(t *testing.T) {
	e := apperr.InvalidRequest.WithMessage("page must be >= 0")
	require.Equal(t, "page must be >= 0", e.Message)
	require.Equal(t, "Invalid request", apperr.InvalidRequest.Message)
	require.ErrorIs(t, e, apperr.InvalidRequest)
}
