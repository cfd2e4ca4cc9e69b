package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Store        StoreConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	HTTP         HTTPConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validateProd(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// minProdJWTSecret is the shortest HS256 secret accepted in prod.
const minProdJWTSecret = 32

// validateProd rejects settings that are only acceptable on a developer machine.
func (c *Config) validateProd() error {
	if !c.App.IsProd() {
		return nil
	}
	if len(c.JWT.Secret) < minProdJWTSecret {
		return fmt.Errorf("%s must be at least %d bytes in prod", EnvJWTSecret, minProdJWTSecret)
	}
	if c.DB.IsSQLite() {
		return fmt.Errorf("%s=sqlite is not supported in prod", EnvDBDrv)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig covers the API edge: CORS and login throttling.
type HTTPConfig struct {
	CORSOrigins        []string      `envconfig:"STOCKPOS_CORS_ORIGINS" default:"http://localhost:3000"`
	LoginWindow        time.Duration `envconfig:"STOCKPOS_LOGIN_RATE_WINDOW" default:"15m"`
	LoginIPLimit       int           `envconfig:"STOCKPOS_LOGIN_RATE_IP_LIMIT" default:"30"`
	LoginUsernameLimit int           `envconfig:"STOCKPOS_LOGIN_RATE_USERNAME_LIMIT" default:"10"`
	ShutdownTimeout    time.Duration `envconfig:"STOCKPOS_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKPOS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKPOS_DB_DSN"`
	Driver string `envconfig:"STOCKPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKPOS_DB_USER"`
	LegacyPassword string `envconfig:"STOCKPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite store.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKPOS_REDIS_URL"`
	Address      string        `envconfig:"STOCKPOS_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOCKPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOCKPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOCKPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOCKPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOCKPOS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"STOCKPOS_AUTO_MIGRATE" default:"false"`
	UseRedisLock  bool `envconfig:"STOCKPOS_FEATURE_REDIS_LOCK" default:"false"`
	UseRedisCarts bool `envconfig:"STOCKPOS_FEATURE_REDIS_CARTS" default:"true"`
}

// CheckoutConfig bounds the settlement critical section.
type CheckoutConfig struct {
	PersistTimeout    time.Duration `envconfig:"STOCKPOS_CHECKOUT_PERSIST_TIMEOUT" default:"10s"`
	ReceiptTimeout    time.Duration `envconfig:"STOCKPOS_CHECKOUT_RECEIPT_TIMEOUT" default:"5s"`
	LockTTL           time.Duration `envconfig:"STOCKPOS_CHECKOUT_LOCK_TTL" default:"30s"`
	LockWait          time.Duration `envconfig:"STOCKPOS_CHECKOUT_LOCK_WAIT" default:"5s"`
	ReceiptAttempts   int           `envconfig:"STOCKPOS_CHECKOUT_RECEIPT_ATTEMPTS" default:"3"`
	CartTTL           time.Duration `envconfig:"STOCKPOS_CART_TTL" default:"12h"`
	LowStockThreshold int           `envconfig:"STOCKPOS_LOW_STOCK_THRESHOLD" default:"10"`
}

// StoreConfig holds the details printed on receipts.
type StoreConfig struct {
	Name          string `envconfig:"STOCKPOS_STORE_NAME" default:"AtoZ Store"`
	Address       string `envconfig:"STOCKPOS_STORE_ADDRESS" default:"123 Main St"`
	Phone         string `envconfig:"STOCKPOS_STORE_PHONE" default:"555-0123"`
	Email         string `envconfig:"STOCKPOS_STORE_EMAIL"`
	Currency      string `envconfig:"STOCKPOS_STORE_CURRENCY" default:"CAD"`
	ReceiptHeader string `envconfig:"STOCKPOS_RECEIPT_HEADER"`
	ReceiptFooter string `envconfig:"STOCKPOS_RECEIPT_FOOTER" default:"Thank you for shopping with us!"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOCKPOS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	SalesTopic     string `envconfig:"STOCKPOS_PUBSUB_SALES_TOPIC" default:"sp-sales-events"`
	InventoryTopic string `envconfig:"STOCKPOS_PUBSUB_INVENTORY_TOPIC" default:"sp-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"STOCKPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"STOCKPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"STOCKPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"STOCKPOS_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
	MetricsAddr    string        `envconfig:"STOCKPOS_OUTBOX_METRICS_ADDR"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval        time.Duration `envconfig:"STOCKPOS_CRON_INTERVAL" default:"1h"`
	OutboxRetention time.Duration `envconfig:"STOCKPOS_CRON_OUTBOX_RETENTION" default:"720h"`
	DLQRetention    time.Duration `envconfig:"STOCKPOS_CRON_DLQ_RETENTION" default:"2160h"`
	MetricsAddr     string        `envconfig:"STOCKPOS_CRON_METRICS_ADDR"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
