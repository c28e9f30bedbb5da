package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// AdminSubject is the only subject the storefront ever issues sessions for.
const AdminSubject = "admin"

const tokenSeparator = "."

// IssueSessionToken returns "subject.expiry.signature". Identical inputs yield
// identical tokens.
func IssueSessionToken(subject string, expiresAt int64, secret string) string {
	payload := subject + tokenSeparator + strconv.FormatInt(expiresAt, 10)
	return payload + tokenSeparator + sign(payload, secret)
}

// VerifySessionToken reports whether token was issued with secret and has not
// expired at now. Every failure mode returns false without detail.
func VerifySessionToken(token, secret string, now time.Time) bool {
	_, ok := ParseSessionToken(token, secret, now)
	return ok
}

// ParseSessionToken verifies the token and returns its subject.
func ParseSessionToken(token, secret string, now time.Time) (string, bool) {
	if token == "" || secret == "" {
		return "", false
	}
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 3 {
		return "", false
	}
	subject, rawExpiry, signature := parts[0], parts[1], parts[2]

	expiresAt, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return "", false
	}
	if now.Unix() > expiresAt {
		return "", false
	}

	expected := sign(subject+tokenSeparator+rawExpiry, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}
	return subject, true
}

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
