package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	pkgAuth "github.com/plywoodshop/storefront/pkg/auth"
	"github.com/plywoodshop/storefront/pkg/config"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/plywoodshop/storefront/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service authenticates the single storefront administrator.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Verify(token string) (string, bool)
	CookieOptions() pkgAuth.CookieOptions
}

type service struct {
	cfg   config.AdminConfig
	logg  *logger.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customises the service; used by tests to control time.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper overrides how the failed-login delay is waited out.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewService constructs the admin login service.
func NewService(cfg config.AdminConfig, logg *logger.Logger, opts ...Option) (Service, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, errors.New("admin username required")
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		return nil, errors.New("admin password or password hash required")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret required")
	}
	svc := &service{
		cfg:   cfg,
		logg:  logg,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if !s.authenticate(ctx, req) {
		s.logg.Warn(s.logg.WithField(ctx, "username", strings.TrimSpace(req.Username)), "auth.login_failed")
		if err := s.sleep(ctx, s.cfg.FailedLoginDelay); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidCredentialsMessage)
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	expiresAt := s.now().Add(s.cfg.SessionTTL)
	token := pkgAuth.IssueSessionToken(pkgAuth.AdminSubject, expiresAt.Unix(), s.cfg.SessionSecret)
	s.logg.Info(s.logg.WithActor(ctx, pkgAuth.AdminSubject), "auth.login_succeeded")

	return &Session{
		Token:     token,
		Subject:   pkgAuth.AdminSubject,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

func (s *service) Verify(token string) (string, bool) {
	subject, ok := pkgAuth.ParseSessionToken(token, s.cfg.SessionSecret, s.now())
	if !ok || subject != pkgAuth.AdminSubject {
		return "", false
	}
	return subject, true
}

func (s *service) CookieOptions() pkgAuth.CookieOptions {
	return pkgAuth.CookieOptions{
		Name:   s.cfg.CookieName,
		TTL:    s.cfg.SessionTTL,
		Secure: s.cfg.SecureCookie,
	}
}

// authenticate evaluates both fields before deciding so a wrong username and
// a wrong password take the same path.
func (s *service) authenticate(ctx context.Context, req LoginRequest) bool {
	username := strings.TrimSpace(req.Username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passOK := s.checkPassword(ctx, req.Password)
	return userOK && passOK
}

func (s *service) checkPassword(ctx context.Context, password string) bool {
	if password == "" {
		return false
	}
	if s.cfg.PasswordHash != "" {
		ok, err := security.VerifyPassword(password, s.cfg.PasswordHash)
		if err != nil {
			s.logg.Error(ctx, "auth.password_hash_invalid", err)
			return false
		}
		return ok
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
