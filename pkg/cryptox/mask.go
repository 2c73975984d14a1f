package cryptox

import "strings"

// MaskLoginID hides most of a login id for logging. Social ids
// ("provider|subject"), email addresses and plain usernames each keep a
// different amount of context.
func MaskLoginID(loginID string) string {
	switch {
	case strings.Contains(loginID, "|"):
		return MaskSocialID(loginID)
	case strings.Contains(loginID, "@"):
		return MaskEmail(loginID)
	default:
		return MaskGeneric(loginID)
	}
}

// MaskEmail keeps one or two leading characters of the local part and the
// whole domain: "lovely@example.com" -> "lo****@example.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	visible := max(1, min(2, len(local)/3))
	if visible > len(local) {
		return email
	}
	return local[:visible] + strings.Repeat("*", len(local)-visible) + "@" + domain
}

// MaskGeneric keeps the first and last character: "admin123" -> "a******3".
func MaskGeneric(s string) string {
	if len(s) <= 2 {
		return s
	}
	return s[:1] + strings.Repeat("*", len(s)-2) + s[len(s)-1:]
}

// MaskToken keeps four characters at each end of a token.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// MaskState shortens an OAuth state or PKCE verifier to "abcd...wxyz".
func MaskState(state string) string {
	if len(state) < 8 {
		return "****"
	}
	return state[:4] + "..." + state[len(state)-4:]
}

// MaskCode shortens an authorization code to "ab...yz".
func MaskCode(code string) string {
	if len(code) < 4 {
		return "****"
	}
	return code[:2] + "..." + code[len(code)-2:]
}

// MaskSocialID masks the provider subject of "provider|subject".
func MaskSocialID(id string) string {
	provider, subject, ok := strings.Cut(id, "|")
	if !ok {
		return "****"
	}
	if len(subject) <= 4 {
		return provider + "|" + strings.Repeat("*", len(subject))
	}
	return provider + "|" + subject[:2] + strings.Repeat("*", len(subject)-4) + subject[len(subject)-2:]
}
