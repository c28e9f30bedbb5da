package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plywoodshop/storefront/pkg/config"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Every key the storefront writes lives under ply:<kind>:...
const (
	keyNamespace   = "ply"
	kindIdempotent = "idempotency"
	kindRateLimit  = "rate_limit"
	kindCart       = "cart"
)

var errNotConnected = errors.New("redis: client not connected")

// commands is the slice of go-redis the storefront relies on. Tests swap in
// an in-memory fake.
type commands interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Incr(context.Context, string) *redis.IntCmd
	ExpireNX(context.Context, string, time.Duration) *redis.BoolCmd
}

// Client backs carts, idempotency replays and shared rate limit counters.
type Client struct {
	cmds commands
	conn *redis.Client
}

type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore is what the replay middleware needs to remember responses.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

// New dials redis and fails unless the first PING succeeds.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}

	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis.connected")
	}
	return &Client{cmds: conn, conn: conn}, nil
}

// buildOptions prefers a redis:// URL. Pool and timeout settings from the
// environment fill whatever the URL left unset.
func buildOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case strings.TrimSpace(cfg.URL) != "":
		parsed, err := redis.ParseURL(strings.TrimSpace(cfg.URL))
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		opts = parsed
	case strings.TrimSpace(cfg.Address) != "":
		opts = &redis.Options{Addr: strings.TrimSpace(cfg.Address), Password: cfg.Password}
	default:
		return nil, errors.New("redis: set PLYWOOD_REDIS_URL or PLYWOOD_REDIS_ADDR")
	}

	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, fallback int) {
	if *dst == 0 {
		*dst = fallback
	}
}

func fillDuration(dst *time.Duration, fallback time.Duration) {
	if *dst == 0 {
		*dst = fallback
	}
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.cmds == nil {
		return "", errNotConnected
	}
	return c.cmds.Get(ctx, key).Result()
}

// Set writes value under key. A zero ttl keeps the key forever.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.cmds == nil {
		return errNotConnected
	}
	return c.cmds.Set(ctx, key, value, ttl).Err()
}

// SetNX writes value only when key is absent and reports whether it did.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.cmds == nil {
		return false, errNotConnected
	}
	return c.cmds.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.cmds == nil {
		return errNotConnected
	}
	if len(keys) == 0 {
		return nil
	}
	return c.cmds.Del(ctx, keys...).Err()
}

// IncrWithTTL bumps a counter and gives it ttl if it has no expiry yet, so a
// window always closes even when an earlier EXPIRE was lost.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c.cmds == nil {
		return 0, errNotConnected
	}
	count, err := c.cmds.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return count, nil
	}
	if err := c.cmds.ExpireNX(ctx, key, ttl).Err(); err != nil {
		return count, fmt.Errorf("redis expire %s: %w", key, err)
	}
	return count, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.cmds == nil {
		return errNotConnected
	}
	return c.cmds.Ping(ctx).Err()
}

// Close is a no-op for clients built without a live connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return namespaced(kindIdempotent, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return namespaced(kindRateLimit, scope)
}

// CartKey is the slot holding one anonymous cart's JSON lines.
func (c *Client) CartKey(cartID string) string {
	return namespaced(kindCart, cartID)
}

// IsNil reports a missing key.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func namespaced(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
