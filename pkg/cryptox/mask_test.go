package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskLoginID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "lovely@example.com", "lo****@example.com"},
		{"short email", "ab@example.com", "a*@example.com"},
		{"generic", "admin123", "a******3"},
		{"tiny generic", "ab", "ab"},
		{"social", "naver|12345689", "naver|12****89"},
		{"short social", "kakao|123", "kakao|***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MaskLoginID(tt.in))
		})
	}
}

func TestMaskToken(t *testing.T) {
	require.Equal(t, "abcd****wxyz", MaskToken("abcdEFGHwxyz"))
	require.Equal(t, "short", MaskToken("short"))
}

func TestMaskStateAndCode(t *testing.T) {
	require.Equal(t, "abcd...wxyz", MaskState("abcd-0000-wxyz"))
	require.Equal(t, "****", MaskState("abc"))
	require.Equal(t, "ab...yz", MaskCode("abcdxyz"))
	require.Equal(t, "****", MaskCode("abc"))
}
