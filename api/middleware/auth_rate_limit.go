package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/plywoodshop/storefront/api/responses"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

const maxLoginBody = 64 << 10

// AuthRateLimitPolicy caps login attempts per client IP and per username
// inside one window. A zero limit turns that dimension off.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	usernameLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, usernameLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, usernameLimit: usernameLimit}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.usernameLimit > 0)
}

// attemptBucket is one counter a login attempt is charged against.
type attemptBucket struct {
	dimension string
	subject   string
	limit     int
}

func (p AuthRateLimitPolicy) key(b attemptBucket) string {
	return p.name + ":" + b.dimension + ":" + b.subject
}

// AuthRateLimit charges each request to its IP bucket and, when the body names
// one, its username bucket. Usernames are hashed before they become keys or
// log fields. The body is replayed for the wrapped handler.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || !policy.active() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buckets, err := policy.bucketsFor(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}

			for _, bucket := range buckets {
				allowed, count, err := limiter.Allow(r.Context(), policy.key(bucket), bucket.limit, policy.window)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(r.Context(), logg, w, bucket, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p AuthRateLimitPolicy) bucketsFor(r *http.Request) ([]attemptBucket, error) {
	var buckets []attemptBucket
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		buckets = append(buckets, attemptBucket{dimension: "ip", subject: ip, limit: p.ipLimit})
	}
	if p.usernameLimit <= 0 || r.Body == nil {
		return buckets, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if username := strings.ToLower(strings.TrimSpace(extractUsername(r.Header.Get("Content-Type"), body))); username != "" {
		sum := sha256.Sum256([]byte(username))
		buckets = append(buckets, attemptBucket{dimension: "user", subject: hex.EncodeToString(sum[:]), limit: p.usernameLimit})
	}
	return buckets, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, bucket attemptBucket, count int64) {
	retryAfter := int(p.window.Seconds())
	if logg != nil {
		fields := map[string]any{
			"policy":         p.name,
			"scope":          bucket.dimension,
			"limit":          bucket.limit,
			"window_seconds": retryAfter,
		}
		if bucket.dimension == "ip" {
			fields["ip"] = bucket.subject
		} else {
			fields["username_hash"] = bucket.subject
		}
		if count > 0 {
			fields["attempts"] = count
		}
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractUsername(contentType string, payload []byte) string {
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(payload))
		if err != nil {
			return ""
		}
		return values.Get("username")
	}

	var body struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return body.Username
}
