package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/identity/pkg/retry"
)

// flavor captures how a provider deviates from plain RFC 6749.
type flavor struct {
	name         string
	pkce         bool
	stateInToken bool
	authURI      string
	tokenURI     string
	userInfoURI  string
	scopes       []string
}

type provider struct {
	flavor
	cfg  ProviderConfig
	http *http.Client
}

func newProvider(f flavor, cfg ProviderConfig, hc *http.Client) *provider {
	if cfg.AuthURI != "" {
		f.authURI = cfg.AuthURI
	}
	if cfg.TokenURI != "" {
		f.tokenURI = cfg.TokenURI
	}
	if cfg.UserInfoURI != "" {
		f.userInfoURI = cfg.UserInfoURI
	}
	if len(cfg.Scopes) > 0 {
		f.scopes = cfg.Scopes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &provider{flavor: f, cfg: cfg, http: hc}
}

// Naver does not support PKCE and requires the state in the token request.
func Naver(cfg ProviderConfig, hc *http.Client) Provider {
	return newProvider(flavor{
		name:         "naver",
		stateInToken: true,
		authURI:      "https://nid.naver.com/oauth2.0/authorize",
		tokenURI:     "https://nid.naver.com/oauth2.0/token",
		userInfoURI:  "https://openapi.naver.com/v1/nid/me",
	}, cfg, hc)
}

func Kakao(cfg ProviderConfig, hc *http.Client) Provider {
	return newProvider(flavor{
		name:        "kakao",
		pkce:        true,
		authURI:     "https://kauth.kakao.com/oauth/authorize",
		tokenURI:    "https://kauth.kakao.com/oauth/token",
		userInfoURI: "https://kapi.kakao.com/v2/user/me",
	}, cfg, hc)
}

func Google(cfg ProviderConfig, hc *http.Client) Provider {
	return newProvider(flavor{
		name:        "google",
		pkce:        true,
		authURI:     "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURI:    "https://oauth2.googleapis.com/token",
		userInfoURI: "https://openidconnect.googleapis.com/v1/userinfo",
		scopes:      []string{"openid"},
	}, cfg, hc)
}

func (p *provider) Name() string       { return p.name }
func (p *provider) SupportsPKCE() bool { return p.pkce }

func (p *provider) AuthorizationURL(state, challenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("state", state)
	if len(p.scopes) > 0 {
		q.Set("scope", strings.Join(p.scopes, " "))
	}
	if p.pkce {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
	}

	sep := "?"
	if strings.Contains(p.authURI, "?") {
		sep = "&"
	}
	return p.authURI + sep + q.Encode()
}

func (p *provider) ExchangeToken(ctx context.Context, code, state, verifier string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", p.cfg.ClientID)
	if p.cfg.ClientSecret != "" {
		form.Set("client_secret", p.cfg.ClientSecret)
	}
	form.Set("redirect_uri", p.cfg.RedirectURI)
	form.Set("code", code)
	if p.stateInToken {
		form.Set("state", state)
	}
	if p.pkce {
		form.Set("code_verifier", verifier)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	raw, err := p.roundTrip(req, ErrTokenExchange)
	if err != nil {
		return Token{}, err
	}

	var body struct {
		Token
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Token{}, fmt.Errorf("%w: decode: %v", ErrTokenExchange, err)
	}
	// Some providers answer 200 with an error body.
	if body.Error != "" || body.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: %s %s", ErrTokenExchange, body.Error, body.ErrorDescription)
	}
	return body.Token, nil
}

func (p *provider) FetchUserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURI, nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	raw, err := p.roundTrip(req, ErrUserInfo)
	if err != nil {
		return UserInfo{}, err
	}

	id, err := parseUserID(raw)
	if err != nil {
		return UserInfo{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	return UserInfo{ID: id}, nil
}

// roundTrip performs req and returns the body of a 2xx response. Network
// failures and 5xx responses are transient.
func (p *provider) roundTrip(req *http.Request, kind error) ([]byte, error) {
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%w: %s: %v", kind, p.name, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%w: %s: read body: %v", kind, p.name, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %s: status %d", kind, p.name, resp.StatusCode)
		if retry.StatusTransient(resp.StatusCode) {
			return nil, retry.Transient(err)
		}
		return nil, err
	}
	return raw, nil
}

// parseUserID reads the provider user id from "id" (Kakao, numeric), "sub"
// (Google) or "response.id" (Naver).
func parseUserID(raw []byte) (string, error) {
	var body struct {
		ID       json.RawMessage `json:"id"`
		Sub      string          `json:"sub"`
		Response *struct {
			ID json.RawMessage `json:"id"`
		} `json:"response"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	if id := rawID(body.ID); id != "" {
		return id, nil
	}
	if body.Sub != "" {
		return body.Sub, nil
	}
	if body.Response != nil {
		if id := rawID(body.Response.ID); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no user id in response")
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
