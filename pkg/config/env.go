package config

// EnvPrefix is handed to envconfig; every field tag already carries the full
// variable name, which envconfig falls back to when the prefixed key is unset.
const EnvPrefix = "TILLCORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:tillcore.db?_foreign_keys=on"
)

const (
	EnvAppEnv   = "TILLCORE_APP_ENV"
	EnvPort     = "TILLCORE_APP_PORT"
	EnvLogLevel = "TILLCORE_LOG_LEVEL"

	EnvDBDSN    = "TILLCORE_DB_DSN"
	EnvDBDriver = "TILLCORE_DB_DRIVER"
	EnvDBHost   = "TILLCORE_DB_HOST"
	EnvDBUser   = "TILLCORE_DB_USER"
	EnvDBName   = "TILLCORE_DB_NAME"

	EnvRedisURL = "TILLCORE_REDIS_URL"

	EnvJWTSecret              = "TILLCORE_JWT_SECRET"
	EnvJWTIssuer              = "TILLCORE_JWT_ISSUER"
	EnvJWTExpMins             = "TILLCORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "TILLCORE_REFRESH_TOKEN_TTL_MINUTES"

	EnvTenantDefaultTimezone   = "TILLCORE_TENANT_DEFAULT_TIMEZONE"
	EnvTenantDefaultTaxRateBps = "TILLCORE_TENANT_DEFAULT_TAX_RATE_BPS"

	EnvSessionPublicPaths = "TILLCORE_SESSION_PUBLIC_PATHS"
	EnvCronSchedule       = "TILLCORE_CRON_SCHEDULE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
