package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replayStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newReplayStore() *replayStore {
	return &replayStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *replayStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (s *replayStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return nil
}

func (s *replayStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return true, nil
}

func (s *replayStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *replayStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func checkoutCall(body, key, cartID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	if cartID != "" {
		req.AddCookie(&http.Cookie{Name: "cart_id", Value: cartID})
	}
	return req
}

func orderCreated(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"data":{"order":%d}}`, *calls)
	})
}

func checkoutGuard(store *replayStore) func(http.Handler) http.Handler {
	return Idempotency(store, IdempotencyOptions{TTL: CheckoutReplayTTL, ScopeCookie: "cart_id"}, nil)
}

func TestIdempotencyRequiresKey(t *testing.T) {
	var calls int
	handler := checkoutGuard(newReplayStore())(orderCreated(&calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutCall(`{"name":"Ivan"}`, "", "cart-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutCall(`{}`, strings.Repeat("k", 256), "cart-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyWithoutStoreIsPassThrough(t *testing.T) {
	var calls int
	handler := Idempotency(nil, IdempotencyOptions{ScopeCookie: "cart_id"}, nil)(orderCreated(&calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutCall(`{}`, "", "cart-1"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newReplayStore()
	var calls int
	handler := checkoutGuard(store)(orderCreated(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutCall(`{"name":"Ivan"}`, "abc", "cart-1"))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	again := httptest.NewRecorder()
	handler.ServeHTTP(again, checkoutCall(`{"name":"Ivan"}`, "abc", "cart-1"))
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.Equal(t, "true", again.Header().Get(ReplayedHeader))
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Equal(t, 1, calls)

	for _, ttl := range store.ttls {
		assert.Equal(t, CheckoutReplayTTL, ttl)
	}
}

func TestIdempotencyScopesKeysPerCart(t *testing.T) {
	var calls int
	handler := checkoutGuard(newReplayStore())(orderCreated(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutCall(`{}`, "abc", "cart-1"))
	handler.ServeHTTP(httptest.NewRecorder(), checkoutCall(`{}`, "abc", "cart-2"))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyRetriesServerErrors(t *testing.T) {
	var calls int
	store := newReplayStore()
	handler := checkoutGuard(store)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), checkoutCall(`{}`, "retry", "cart-1"))
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data, "a failed attempt releases its slot")
}

func TestIdempotencyHoldsSlotWhileFirstRequestRuns(t *testing.T) {
	store := newReplayStore()
	started := make(chan struct{})
	finish := make(chan struct{})
	var mu sync.Mutex
	var calls int
	handler := checkoutGuard(store)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-finish
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order":1}}`))
	}))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(first, checkoutCall(`{"name":"Ivan"}`, "double-click", "cart-1"))
	}()
	<-started

	duplicate := httptest.NewRecorder()
	handler.ServeHTTP(duplicate, checkoutCall(`{"name":"Ivan"}`, "double-click", "cart-1"))
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Equal(t, "1", duplicate.Header().Get("Retry-After"))
	assert.Contains(t, duplicate.Body.String(), string(pkgerrors.CodeIdempotency))

	close(finish)
	<-done
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, checkoutCall(`{"name":"Ivan"}`, "double-click", "cart-1"))
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "the handler runs once for concurrent duplicates")
}

func TestIdempotencyReleasesSlotOnPanic(t *testing.T) {
	store := newReplayStore()
	handler := checkoutGuard(store)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), checkoutCall(`{}`, "crash", "cart-1"))
	})
	assert.Empty(t, store.data)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	var calls int
	handler := checkoutGuard(newReplayStore())(orderCreated(&calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutCall(strings.Repeat("x", maxReplayBody+1), "big", "cart-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")
	assert.Zero(t, calls)
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	var calls int
	handler := checkoutGuard(newReplayStore())(orderCreated(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutCall(`{"foo":"bar"}`, "xyz", "cart-1"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutCall(`{"foo":"diff"}`, "xyz", "cart-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, calls)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), payload.Error.Code)
}

func TestIdempotencyDefaultsTTL(t *testing.T) {
	store := newReplayStore()
	var calls int
	handler := Idempotency(store, IdempotencyOptions{}, nil)(orderCreated(&calls))
	handler.ServeHTTP(httptest.NewRecorder(), checkoutCall(`{}`, "k1", ""))

	require.Len(t, store.ttls, 1)
	for _, ttl := range store.ttls {
		assert.Equal(t, DefaultReplayTTL, ttl)
	}
}
