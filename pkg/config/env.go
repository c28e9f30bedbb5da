package config

const (
	EnvPrefix = "PLYWOOD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "PLYWOOD_APP_ENV"
	EnvPort   = "PLYWOOD_APP_PORT"

	EnvDBDSN  = "PLYWOOD_DB_DSN"
	EnvDBHost = "PLYWOOD_DB_HOST"
	EnvDBUser = "PLYWOOD_DB_USER"
	EnvDBName = "PLYWOOD_DB_NAME"

	EnvUseSQLite   = "PLYWOOD_USE_SQLITE"
	EnvRedisURL    = "PLYWOOD_REDIS_URL"
	EnvCartTTL     = "PLYWOOD_CART_TTL"
	EnvMaxUploadMB = "PLYWOOD_MAX_UPLOAD_MB"

	EnvAdminUsername      = "PLYWOOD_ADMIN_USERNAME"
	EnvAdminPassword      = "PLYWOOD_ADMIN_PASSWORD"
	EnvAdminPasswordHash  = "PLYWOOD_ADMIN_PASSWORD_HASH"
	EnvAdminSessionSecret = "PLYWOOD_ADMIN_SESSION_SECRET"
	EnvAdminSessionTTL    = "PLYWOOD_ADMIN_SESSION_TTL"

	minSessionSecretLen = 16
)
