package config

const (
	EnvPrefix = "STOCKPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv   = "STOCKPOS_APP_ENV"
	EnvPort     = "STOCKPOS_APP_PORT"
	EnvDBDSN    = "STOCKPOS_DB_DSN"
	EnvDBHost   = "STOCKPOS_DB_HOST"
	EnvDBUser   = "STOCKPOS_DB_USER"
	EnvDBName   = "STOCKPOS_DB_NAME"
	EnvDBPass   = "STOCKPOS_DB_PASSWORD"
	EnvDBDrv    = "STOCKPOS_DB_DRIVER"
	EnvRedisURL = "STOCKPOS_REDIS_URL"

	EnvJWTSecret  = "STOCKPOS_JWT_SECRET"
	EnvJWTIssuer  = "STOCKPOS_JWT_ISSUER"
	EnvJWTExpMins = "STOCKPOS_JWT_EXPIRATION_MINUTES"

	EnvCheckoutPersistTimeout = "STOCKPOS_CHECKOUT_PERSIST_TIMEOUT"
	EnvCheckoutLockTTL        = "STOCKPOS_CHECKOUT_LOCK_TTL"
	EnvStoreName              = "STOCKPOS_STORE_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
