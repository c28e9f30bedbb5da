package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/plywoodshop/storefront/internal/cart"
	"github.com/plywoodshop/storefront/internal/media"
	"github.com/plywoodshop/storefront/internal/quiz"
	"github.com/plywoodshop/storefront/pkg/config"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubQuiz struct{ called bool }

func (s *stubQuiz) Recommend(ctx context.Context, answers quiz.Answers, limit int) (*quiz.Result, error) {
	s.called = true
	return &quiz.Result{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	handler := HealthReady(cfg, map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	}, testLogger())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Plywood-Env"))
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
	assert.Contains(t, rec.Body.String(), `"db":"up"`)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCartCookieMintsAndReuses(t *testing.T) {
	cookie := CartCookie{Name: "cart_id"}

	rec := httptest.NewRecorder()
	id := cookie.cartID(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.NotEmpty(t, id)
	minted := rec.Result().Cookies()
	require.Len(t, minted, 1)
	assert.Equal(t, id, minted[0].Value)
	assert.True(t, minted[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, minted[0].SameSite)
	assert.Equal(t, int(defaultCartCookieTTL.Seconds()), minted[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(minted[0])
	again := httptest.NewRecorder()
	assert.Equal(t, id, cookie.cartID(again, req))
	assert.Empty(t, again.Result().Cookies())

	forged := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	forged.AddCookie(&http.Cookie{Name: "cart_id", Value: "../../etc/passwd"})
	replaced := httptest.NewRecorder()
	assert.NotEqual(t, "../../etc/passwd", cookie.cartID(replaced, forged))
	assert.Len(t, replaced.Result().Cookies(), 1)
}

func TestAddCartItemRejectsOutOfRangeValues(t *testing.T) {
	carts, err := cart.NewService(cart.NewMemoryStorage(), testLogger())
	require.NoError(t, err)
	handler := AddCartItem(carts, CartCookie{Name: "cart_id"}, testLogger())

	for _, body := range []string{
		`{"productId":42,"price":1250,"quantity":10000}`,
		`{"productId":42,"price":100001,"quantity":1}`,
	} {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"productId":42,"price":100000,"quantity":9999}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot struct {
		Data cart.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, cart.MaxQuantity, snapshot.Data.Count)
	assert.Equal(t, cart.MaxPrice*cart.MaxQuantity, snapshot.Data.Subtotal)
}

func TestQuizRecommendValidatesBody(t *testing.T) {
	svc := &stubQuiz{}
	handler := QuizRecommend(svc, testLogger())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quiz/recommendations", strings.NewReader(`{"moisture":"dry"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.called)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quiz/recommendations?limit=99", strings.NewReader(`{"usage":"interior","moisture":"dry"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quiz/recommendations", strings.NewReader(`{"usage":"interior","moisture":"dry"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.called)
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAdminUploadStoresImage(t *testing.T) {
	svc, err := media.NewService(media.Config{Dir: t.TempDir(), URLPrefix: "/uploads", MaxBytes: 1 << 20}, testLogger())
	require.NoError(t, err)
	handler := AdminUpload(svc, 1<<20, testLogger())

	body, contentType := multipartBody(t, "file", "sheet.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var envelope struct {
		Data media.UploadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "image/png", envelope.Data.MimeType)
	assert.True(t, strings.HasPrefix(envelope.Data.URL, "/uploads/"))
}

func TestAdminUploadRejectsMissingFieldAndText(t *testing.T) {
	svc, err := media.NewService(media.Config{Dir: t.TempDir(), MaxBytes: 1 << 20}, testLogger())
	require.NoError(t, err)
	handler := AdminUpload(svc, 1<<20, testLogger())

	body, contentType := multipartBody(t, "attachment", "sheet.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartBody(t, "file", "notes.txt", []byte("just some text"))
	req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTextParamUnescapes(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("lineId", "42%7C%D0%A4%D0%9A%7C9")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	value, err := textParam(req, "lineId")
	require.NoError(t, err)
	assert.Equal(t, "42|ФК|9", value)
}
