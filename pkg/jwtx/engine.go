package jwtx

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the minimum HS256 key size (RFC 7518 section 3.2).
const MinSecretBytes = 32

// Config holds everything the Engine needs. It is copied on construction.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration

	// Now overrides the clock used for issuing and validating. Nil means time.Now.
	Now func() time.Time
}

// Engine signs and verifies HS256 access and refresh tokens. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// DecodeSecret decodes a base64 (standard or URL alphabet) signing secret.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("jwtx: decode secret: %w", err)
	}
	return b, nil
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)

	return &Engine{
		key:        key,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
		parser:     jwt.NewParser(opts...),
	}, nil
}

// AccessTTL is the configured access token lifetime.
func (e *Engine) AccessTTL() time.Duration { return e.accessTTL }

// RefreshTTL is the configured refresh token lifetime.
func (e *Engine) RefreshTTL() time.Duration { return e.refreshTTL }

// IssueAccess signs an access token for subject with role-scoped claims.
func (e *Engine) IssueAccess(subject string, rc RoleClaims) (string, error) {
	return e.sign(NewAccessClaims(subject, rc, e.issuer, e.accessTTL, e.now()))
}

// IssueRefresh signs a claim-light refresh token for subject.
func (e *Engine) IssueRefresh(subject string) (string, error) {
	return e.sign(NewRefreshClaims(subject, e.issuer, e.refreshTTL, e.now()))
}

func (e *Engine) sign(c Claims) (string, error) {
	if c.Subject == "" {
		return "", fmt.Errorf("jwtx: sign: empty subject")
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(e.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Verify checks signature, issuer and expiry. Every failure is reported as
// ErrTokenInvalid with the parser error attached for logging.
func (e *Engine) Verify(token string) (Claims, error) {
	var c Claims
	t, err := e.parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return e.key, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !t.Valid || c.Subject == "" {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

// SubjectOf reads the "sub" claim without verifying the signature or
// decoding the role claims. Only call it on a token Verify already accepted.
func (e *Engine) SubjectOf(token string) (string, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if rc.Subject == "" {
		return "", ErrTokenInvalid
	}
	return rc.Subject, nil
}
