package env

import (
	"net/url"
	"strings"
)

// mask keeps the first half of s and stars out the rest.
func mask(s string) string {
	if len(s) <= 1 {
		return strings.Repeat("*", len(s))
	}
	h := len(s) / 2
	return s[:h] + strings.Repeat("*", len(s)-h)
}

// MaskURL returns rawURL with its credentials masked so it can be logged.
// Unparseable input is masked whole.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return mask(rawURL)
	}
	if u.User == nil {
		return u.String()
	}
	// built by hand so the stars are not percent-encoded
	user := mask(u.User.Username())
	if pass, ok := u.User.Password(); ok {
		user += ":" + mask(pass)
	}
	u.User = nil
	return u.Scheme + "://" + user + "@" + strings.TrimPrefix(u.String(), u.Scheme+"://")
}
