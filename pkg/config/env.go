package config

// EnvPrefix is the envconfig prefix shared by every section.
const EnvPrefix = "pharmacare"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	// DefaultSQLitePath is where an offline install keeps its database when
	// no DSN is provided.
	DefaultSQLitePath = "pharmacare.db"
)

// Environment variable names referenced outside envconfig tags (tests,
// error messages).
const (
	EnvAppEnv        = "PHARMACARE_APP_ENV"
	EnvPort          = "PHARMACARE_APP_PORT"
	EnvDBDSN         = "PHARMACARE_DB_DSN"
	EnvDBHost        = "PHARMACARE_DB_HOST"
	EnvDBUser        = "PHARMACARE_DB_USER"
	EnvDBName        = "PHARMACARE_DB_NAME"
	EnvJWTSecret     = "PHARMACARE_JWT_SECRET"
	EnvLicenseSecret = "PHARMACARE_LICENSE_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
