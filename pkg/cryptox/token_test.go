package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	require.Len(t, raw, TokenSize256)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestS256Challenge(t *testing.T) {
	// RFC 7636 Appendix B
	verifier := "dBjftJeZ4CVP-mJ92K9Z7Ht3e2EcfSXp4gzXZbq-BMY"
	require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", S256Challenge(verifier))
}

func TestNewPKCEVerifier(t *testing.T) {
	v, err := NewPKCEVerifier()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(v), 43)
	require.LessOrEqual(t, len(v), 128)
	require.Regexp(t, `^[A-Za-z0-9_-]+$`, v)

	other, err := NewPKCEVerifier()
	require.NoError(t, err)
	require.NotEqual(t, v, other)
}
