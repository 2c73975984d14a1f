package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/aussiebroadwan/identity/pkg/retry"
	"github.com/stretchr/testify/require"
)

var fast = retry.Policy{Attempts: 3, Delay: time.Millisecond}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fast, func(context.Context) error {
		calls++
		if calls < 3 {
			return retry.Transient(errors.New("503"))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	err := retry.Do(context.Background(), fast, func(context.Context) error {
		calls++
		return retry.Transient(boom)
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestDo_NeverRetriesPermanent(t *testing.T) {
	bad := errors.New("400 bad request")
	calls := 0
	err := retry.Do(context.Background(), fast, func(context.Context) error {
		calls++
		return bad
	})
	require.ErrorIs(t, err, bad)
	require.Equal(t, 1, calls)
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, err := retry.DoValue(context.Background(), fast, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", retry.Transient(errors.New("timeout"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestTransientMarkers(t *testing.T) {
	require.Nil(t, retry.Transient(nil))
	require.True(t, retry.StatusTransient(502))
	require.False(t, retry.StatusTransient(404))
}

// protocolError satisfies net.Error the way broker client errors do.
type protocolError struct{ timeout bool }

func (e protocolError) Error() string   { return "protocol error" }
func (e protocolError) Timeout() bool   { return e.timeout }
func (e protocolError) Temporary() bool { return e.timeout }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("nope"), false},
		{"marked", retry.Transient(errors.New("503")), true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"net.Error timeout", fmt.Errorf("publish: %w", protocolError{timeout: true}), true},
		{"net.Error without timeout", fmt.Errorf("publish: %w", protocolError{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, retry.IsTransient(tt.err))
		})
	}
}

func TestDo_NeverRetriesPermanentNetError(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fast, func(context.Context) error {
		calls++
		return protocolError{}
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
