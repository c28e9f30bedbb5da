package auth

import (
	"context"
	"io"
	"testing"
	"time"

	pkgAuth "github.com/plywoodshop/storefront/pkg/auth"
	"github.com/plywoodshop/storefront/pkg/config"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/plywoodshop/storefront/pkg/security"
	"github.com/rs/zerolog"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

type recordingSleeper struct {
	calls []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func testAdminConfig() config.AdminConfig {
	return config.AdminConfig{
		Username:         "admin",
		Password:         "plywood",
		SessionSecret:    testSecret,
		SessionTTL:       8 * time.Hour,
		CookieName:       "admin_session",
		FailedLoginDelay: time.Second,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sleeper := &recordingSleeper{}
	svc, err := NewService(testAdminConfig(), newTestLogger(),
		WithClock(func() time.Time { return now }),
		WithSleeper(sleeper.sleep),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	session, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "plywood"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.ExpiresAt.Unix() != now.Add(8*time.Hour).Unix() {
		t.Fatalf("unexpected expiry %v", session.ExpiresAt)
	}
	want := pkgAuth.IssueSessionToken(pkgAuth.AdminSubject, now.Add(8*time.Hour).Unix(), testSecret)
	if session.Token != want {
		t.Fatalf("expected token %q, got %q", want, session.Token)
	}
	subject, ok := svc.Verify(session.Token)
	if !ok || subject != pkgAuth.AdminSubject {
		t.Fatalf("expected token to verify, got %q %v", subject, ok)
	}
	if len(sleeper.calls) != 0 {
		t.Fatalf("expected no delay on success, got %v", sleeper.calls)
	}
}

func TestLoginFailureDelaysAndReturnsUnauthorized(t *testing.T) {
	cases := []LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "root", Password: "plywood"},
		{Username: "", Password: ""},
	}
	for _, req := range cases {
		sleeper := &recordingSleeper{}
		svc, err := NewService(testAdminConfig(), newTestLogger(), WithSleeper(sleeper.sleep))
		if err != nil {
			t.Fatalf("new service: %v", err)
		}
		_, err = svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
		if len(sleeper.calls) != 1 || sleeper.calls[0] != time.Second {
			t.Fatalf("expected one 1s delay, got %v", sleeper.calls)
		}
	}
}

func TestLoginWithPasswordHash(t *testing.T) {
	hash, err := security.HashPassword("s3cret", config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := testAdminConfig()
	cfg.Password = ""
	cfg.PasswordHash = hash

	svc, err := NewService(cfg, newTestLogger(), WithSleeper(func(context.Context, time.Duration) error { return nil }))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "s3cret"}); err != nil {
		t.Fatalf("expected hashed login to succeed: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "plywood"}); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	svc, err := NewService(testAdminConfig(), newTestLogger(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	expired := pkgAuth.IssueSessionToken(pkgAuth.AdminSubject, now.Add(-time.Second).Unix(), testSecret)
	if _, ok := svc.Verify(expired); ok {
		t.Fatal("expected expired token to be rejected")
	}
	foreign := pkgAuth.IssueSessionToken(pkgAuth.AdminSubject, now.Add(time.Hour).Unix(), "another-secret-another-secret-xx")
	if _, ok := svc.Verify(foreign); ok {
		t.Fatal("expected token signed with another secret to be rejected")
	}
	otherSubject := pkgAuth.IssueSessionToken("editor", now.Add(time.Hour).Unix(), testSecret)
	if _, ok := svc.Verify(otherSubject); ok {
		t.Fatal("expected non-admin subject to be rejected")
	}
}

func TestSleepContextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); err == nil {
		t.Fatal("expected cancelled context to abort the delay")
	}
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Fatalf("expected zero delay to return immediately: %v", err)
	}
}

func TestNewServiceRequiresConfig(t *testing.T) {
	cfg := testAdminConfig()
	cfg.SessionSecret = ""
	if _, err := NewService(cfg, newTestLogger()); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewService(testAdminConfig(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
