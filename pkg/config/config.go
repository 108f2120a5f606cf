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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	License       LicenseConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMACARE_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMACARE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMACARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMACARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHARMACARE_DB_DSN"`
	Driver string `envconfig:"PHARMACARE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHARMACARE_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMACARE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMACARE_DB_USER"`
	LegacyPassword string `envconfig:"PHARMACARE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMACARE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMACARE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMACARE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMACARE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMACARE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMACARE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets an embedded
// SQLite file, the usual choice for single-site offline installs.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMACARE_REDIS_URL"`
	Password     string        `envconfig:"PHARMACARE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMACARE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMACARE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMACARE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMACARE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMACARE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMACARE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured at all. Offline
// installs commonly run without one, which disables login rate limiting.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"PHARMACARE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PHARMACARE_JWT_ISSUER" default:"pharmacare"`
	ExpirationMinutes int    `envconfig:"PHARMACARE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMACARE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMACARE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMACARE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMACARE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMACARE_ARGON_KEY_LEN" default:"32"`
}

// LicenseConfig carries the symmetric material for the license codec. The
// secret and salt are injected into the codec at construction time so the
// codec itself never reads process environment.
type LicenseConfig struct {
	Secret string `envconfig:"PHARMACARE_LICENSE_SECRET" required:"true"`
	Salt   string `envconfig:"PHARMACARE_LICENSE_SALT" default:"pharmacare-license"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PHARMACARE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"PHARMACARE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"PHARMACARE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PHARMACARE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLitePath
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
