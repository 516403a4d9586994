package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Tenant        TenantConfig
	Session       SessionConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Tenant.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TILLCORE_APP_ENV" required:"true"`
	Port         string `envconfig:"TILLCORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TILLCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TILLCORE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"TILLCORE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TILLCORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TILLCORE_DB_DSN"`
	Driver string `envconfig:"TILLCORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TILLCORE_DB_HOST"`
	LegacyPort     int    `envconfig:"TILLCORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TILLCORE_DB_USER"`
	LegacyPassword string `envconfig:"TILLCORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TILLCORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TILLCORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TILLCORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TILLCORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TILLCORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TILLCORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets a local sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TILLCORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TILLCORE_REDIS_ADDR"`
	Password     string        `envconfig:"TILLCORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TILLCORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TILLCORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TILLCORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TILLCORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TILLCORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TILLCORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TILLCORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TILLCORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TILLCORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TILLCORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TILLCORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TILLCORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TILLCORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TILLCORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TILLCORE_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"TILLCORE_CREDENTIAL_MIN_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TILLCORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TILLCORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TILLCORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TILLCORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TILLCORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TILLCORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TILLCORE_AUTO_MIGRATE" default:"false"`
}

// TenantConfig holds the defaults applied to newly registered businesses.
type TenantConfig struct {
	DefaultCurrency   string `envconfig:"TILLCORE_TENANT_DEFAULT_CURRENCY" default:"USD"`
	DefaultTimezone   string `envconfig:"TILLCORE_TENANT_DEFAULT_TIMEZONE" default:"UTC"`
	DefaultTaxRateBps int    `envconfig:"TILLCORE_TENANT_DEFAULT_TAX_RATE_BPS" default:"0"`
	TrialDays         int    `envconfig:"TILLCORE_TENANT_TRIAL_DAYS" default:"14"`
	MaxBranches       int    `envconfig:"TILLCORE_TENANT_MAX_BRANCHES" default:"3"`
	MaxStaff          int    `envconfig:"TILLCORE_TENANT_MAX_STAFF" default:"25"`
}

// TrialPeriod returns the trial length granted at registration.
func (t TenantConfig) TrialPeriod() time.Duration {
	if t.TrialDays <= 0 {
		return 0
	}
	return time.Duration(t.TrialDays) * 24 * time.Hour
}

func (t TenantConfig) validate() error {
	if _, err := time.LoadLocation(t.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvTenantDefaultTimezone, err)
	}
	if t.DefaultTaxRateBps < 0 || t.DefaultTaxRateBps > 10000 {
		return fmt.Errorf("%s must be between 0 and 10000", EnvTenantDefaultTaxRateBps)
	}
	return nil
}

// SessionConfig names the client routes the session gate redirects to.
type SessionConfig struct {
	LoginPath            string   `envconfig:"TILLCORE_SESSION_LOGIN_PATH" default:"/login"`
	ChangeCredentialPath string   `envconfig:"TILLCORE_SESSION_CHANGE_CREDENTIAL_PATH" default:"/change-password"`
	BranchClosedPath     string   `envconfig:"TILLCORE_SESSION_BRANCH_CLOSED_PATH" default:"/branch-closed"`
	HomePath             string   `envconfig:"TILLCORE_SESSION_HOME_PATH" default:"/dashboard"`
	LogoutPath           string   `envconfig:"TILLCORE_SESSION_LOGOUT_PATH" default:"/logout"`
	ExitPath             string   `envconfig:"TILLCORE_SESSION_EXIT_PATH" default:"/exit"`
	PublicPaths          []string `envconfig:"TILLCORE_SESSION_PUBLIC_PATHS" default:"/register,/health"`
}

type CronConfig struct {
	Schedule string        `envconfig:"TILLCORE_CRON_SCHEDULE" default:"*/5 * * * *"`
	LockTTL  time.Duration `envconfig:"TILLCORE_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
