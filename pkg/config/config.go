package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the whole process configuration, read once from PLYWOOD_*
// variables at startup.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Admin         AdminConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Media         MediaConfig
	Cart          CartConfig
	CORS          CORSConfig
}

// Load parses the environment, fills the Postgres DSN from its parts when
// needed and reports every invalid setting at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite && cfg.DB.DSN == "" {
		dsn, err := cfg.DB.dsnFromParts()
		if err != nil {
			return nil, err
		}
		cfg.DB.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross field rules envconfig tags cannot express.
func (c *Config) Validate() error {
	var problems []error
	if strings.TrimSpace(c.Admin.Password) == "" && strings.TrimSpace(c.Admin.PasswordHash) == "" {
		problems = append(problems, fmt.Errorf("either %s or %s is required", EnvAdminPassword, EnvAdminPasswordHash))
	}
	if len(c.Admin.SessionSecret) < minSessionSecretLen {
		problems = append(problems, fmt.Errorf("%s must be at least %d characters", EnvAdminSessionSecret, minSessionSecretLen))
	}
	if c.Admin.SessionTTL <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive", EnvAdminSessionTTL))
	}
	if c.Cart.TTL <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive", EnvCartTTL))
	}
	if c.Media.MaxUploadMB < 0 {
		problems = append(problems, fmt.Errorf("%s must not be negative", EnvMaxUploadMB))
	}
	return errors.Join(problems...)
}

type AppConfig struct {
	Env          string `envconfig:"PLYWOOD_APP_ENV" required:"true"`
	Port         string `envconfig:"PLYWOOD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PLYWOOD_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PLYWOOD_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PLYWOOD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// DBConfig takes either a full DSN or discrete Postgres parts.
type DBConfig struct {
	DSN string `envconfig:"PLYWOOD_DB_DSN"`

	Host     string `envconfig:"PLYWOOD_DB_HOST"`
	Port     int    `envconfig:"PLYWOOD_DB_PORT" default:"5432"`
	User     string `envconfig:"PLYWOOD_DB_USER"`
	Password string `envconfig:"PLYWOOD_DB_PASSWORD"`
	Name     string `envconfig:"PLYWOOD_DB_NAME"`
	SSLMode  string `envconfig:"PLYWOOD_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"PLYWOOD_SQLITE_PATH" default:"plywood.db"`

	MaxOpenConns    int           `envconfig:"PLYWOOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLYWOOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLYWOOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLYWOOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"PLYWOOD_DB_SLOW_QUERY" default:"200ms"`
}

func (d DBConfig) dsnFromParts() (string, error) {
	var missing []string
	for env, value := range map[string]string{EnvDBHost: d.Host, EnvDBUser: d.User, EnvDBName: d.Name} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("set %s or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(d.User),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// RedisConfig is optional; when neither URL nor address is set the api falls
// back to in-process stores.
type RedisConfig struct {
	URL          string        `envconfig:"PLYWOOD_REDIS_URL"`
	Address      string        `envconfig:"PLYWOOD_REDIS_ADDR"`
	Password     string        `envconfig:"PLYWOOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLYWOOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLYWOOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLYWOOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLYWOOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLYWOOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLYWOOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// AdminConfig holds the single operator account. PasswordHash, when set, wins
// over the plaintext Password.
type AdminConfig struct {
	Username         string        `envconfig:"PLYWOOD_ADMIN_USERNAME" required:"true"`
	Password         string        `envconfig:"PLYWOOD_ADMIN_PASSWORD"`
	PasswordHash     string        `envconfig:"PLYWOOD_ADMIN_PASSWORD_HASH"`
	SessionSecret    string        `envconfig:"PLYWOOD_ADMIN_SESSION_SECRET" required:"true"`
	SessionTTL       time.Duration `envconfig:"PLYWOOD_ADMIN_SESSION_TTL" default:"8h"`
	CookieName       string        `envconfig:"PLYWOOD_ADMIN_COOKIE_NAME" default:"admin_session"`
	FailedLoginDelay time.Duration `envconfig:"PLYWOOD_ADMIN_FAILED_LOGIN_DELAY" default:"1s"`
	SecureCookie     bool          `envconfig:"PLYWOOD_ADMIN_SECURE_COOKIE" default:"false"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PLYWOOD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PLYWOOD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PLYWOOD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PLYWOOD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PLYWOOD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PLYWOOD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"PLYWOOD_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PLYWOOD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PLYWOOD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PLYWOOD_AUTO_MIGRATE" default:"false"`
}

type MediaConfig struct {
	UploadDir       string `envconfig:"PLYWOOD_MEDIA_UPLOAD_DIR" default:"uploads"`
	PublicURLPrefix string `envconfig:"PLYWOOD_MEDIA_PUBLIC_PREFIX" default:"/uploads"`
	MaxUploadMB     int    `envconfig:"PLYWOOD_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes is 0 when no cap is configured.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

type CartConfig struct {
	CookieName string        `envconfig:"PLYWOOD_CART_COOKIE_NAME" default:"cart_id"`
	TTL        time.Duration `envconfig:"PLYWOOD_CART_TTL" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PLYWOOD_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
