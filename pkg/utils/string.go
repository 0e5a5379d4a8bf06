package utils

import (
	"crypto/rand"
	"encoding/base64"
	"regexp"
	"strings"
)

const accessTokenBytes = 32

// GenerateAccessToken returns 32 random bytes encoded as unpadded base64url,
// which keeps the token safe inside URLs and QR payloads.
func GenerateAccessToken() (string, error) {
	b := make([]byte, accessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify lowercases s and collapses every run of non-alphanumerics to a dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
