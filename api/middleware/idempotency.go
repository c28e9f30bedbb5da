package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plywoodshop/storefront/api/responses"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
	pkgredis "github.com/plywoodshop/storefront/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 255
	DefaultReplayTTL  = 24 * time.Hour
	CheckoutReplayTTL = 7 * 24 * time.Hour
	// DefaultPendingTTL bounds how long a crashed request can hold its slot.
	DefaultPendingTTL = time.Minute
	maxReplayBody     = 1 << 20
)

// IdempotencyOptions configures one guarded route. ScopeCookie names the
// cookie identifying the caller, so two carts sending the same key never see
// each other's responses; without it the admin actor is used.
type IdempotencyOptions struct {
	TTL         time.Duration
	PendingTTL  time.Duration
	ScopeCookie string
}

// storedResponse is what a replay writes back, byte for byte. A pending entry
// holds the slot while the first request is still running.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	BodyHash    string `json:"body_hash"`
}

// Idempotency makes a route safe to retry. The first request under a key
// claims the slot and runs; its response is remembered. Later requests with
// the same key and body get that response again, a different body is a 409,
// and a duplicate that arrives while the first is still running is a 409 with
// Retry-After. Responses of 500 and above release the slot so the client can
// retry. A nil store disables the check entirely.
func Idempotency(store pkgredis.IdempotencyStore, opts IdempotencyOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = DefaultReplayTTL
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}

	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			clientKey, err := readIdempotencyKey(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReplayBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bodyHash := digest(body)
			slot := store.IdempotencyKey(callerScope(r, opts.ScopeCookie), clientKey)

			claimed, prior, err := claimSlot(ctx, store, slot, bodyHash, opts.PendingTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if !claimed {
				answerDuplicate(ctx, logg, w, prior, bodyHash)
				return
			}

			// The slot outlives a cancelled request, so it is settled on a
			// context that ignores cancellation.
			settleCtx := context.WithoutCancel(ctx)
			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			completed := false
			defer func() {
				if !completed {
					release(settleCtx, store, slot, clientKey, logg)
				}
			}()
			next.ServeHTTP(capture, r)
			completed = true

			if capture.status >= http.StatusInternalServerError {
				release(settleCtx, store, slot, clientKey, logg)
				return
			}

			payload, err := json.Marshal(storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				BodyHash:    bodyHash,
			})
			if err == nil {
				err = store.Set(settleCtx, slot, string(payload), opts.TTL)
			}
			if err != nil && logg != nil {
				logg.Error(logg.WithField(ctx, "idempotency_key", clientKey), "idempotency.persist_failed", err)
			}
		})
	}
}

// claimSlot writes a pending marker unless the slot is taken. When it is, the
// current holder is returned; a holder that vanished between the two calls is
// claimed again once.
func claimSlot(ctx context.Context, store pkgredis.IdempotencyStore, slot, bodyHash string, pendingTTL time.Duration) (bool, *storedResponse, error) {
	marker, err := json.Marshal(storedResponse{Pending: true, BodyHash: bodyHash})
	if err != nil {
		return false, nil, err
	}
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := store.SetNX(ctx, slot, string(marker), pendingTTL)
		if err != nil {
			return false, nil, err
		}
		if ok {
			return true, nil, nil
		}
		prior, err := lookupResponse(ctx, store, slot)
		if err != nil {
			return false, nil, err
		}
		if prior != nil {
			return false, prior, nil
		}
	}
	return false, nil, errors.New("idempotency slot changed while claiming")
}

func answerDuplicate(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, prior *storedResponse, bodyHash string) {
	switch {
	case prior.BodyHash != bodyHash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior.Pending:
		w.Header().Set("Retry-After", "1")
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
	default:
		prior.replay(w)
	}
}

func release(ctx context.Context, store pkgredis.IdempotencyStore, slot, clientKey string, logg *logger.Logger) {
	if err := store.Del(ctx, slot); err != nil && logg != nil {
		logg.Error(logg.WithField(ctx, "idempotency_key", clientKey), "idempotency.release_failed", err)
	}
}

func readIdempotencyKey(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	switch {
	case key == "":
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	case len(key) > maxIdempotencyKey:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long")
	}
	return key, nil
}

func lookupResponse(ctx context.Context, store pkgredis.IdempotencyStore, slot string) (*storedResponse, error) {
	raw, err := store.Get(ctx, slot)
	if pkgredis.IsNil(err) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		return nil, err
	}
	return &prior, nil
}

func (s *storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

func callerScope(r *http.Request, scopeCookie string) string {
	caller := ActorFromContext(r.Context())
	if scopeCookie != "" {
		if c, err := r.Cookie(scopeCookie); err == nil && c.Value != "" {
			caller = c.Value
		}
	}
	return strings.Join([]string{caller, r.Method, r.URL.Path}, "|")
}

func digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// responseCapture tees the body so it can be stored after the handler returns.
type responseCapture struct {
	http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (c *responseCapture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
