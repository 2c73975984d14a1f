package jwtx

import "errors"

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	// ErrTokenInvalid covers malformed, badly signed and expired tokens alike.
	ErrTokenInvalid = errors.New("jwtx: token invalid")

	// ErrWeakSecret is returned for HMAC secrets shorter than MinSecretBytes.
	ErrWeakSecret = errors.New("jwtx: signing secret too short")
)
