package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable this app reads.
	EnvPrefix = "ADSDIR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Billing      BillingConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADSDIR_APP_ENV" default:"dev"`
	Port         string `envconfig:"ADSDIR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ADSDIR_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ADSDIR_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ADSDIR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ADSDIR_DB_DSN"`
	Driver string `envconfig:"ADSDIR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ADSDIR_DB_HOST"`
	Port     int    `envconfig:"ADSDIR_DB_PORT" default:"5432"`
	User     string `envconfig:"ADSDIR_DB_USER"`
	Password string `envconfig:"ADSDIR_DB_PASSWORD"`
	Name     string `envconfig:"ADSDIR_DB_NAME"`
	SSLMode  string `envconfig:"ADSDIR_DB_SSLMODE" default:"disable"`

	// SQLitePath backs the legacy relational mode.
	SQLitePath string `envconfig:"ADSDIR_SQLITE_PATH" default:"adsdir.db"`

	MaxOpenConns    int           `envconfig:"ADSDIR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ADSDIR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ADSDIR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADSDIR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ADSDIR_REDIS_URL"`
	Address      string        `envconfig:"ADSDIR_REDIS_ADDR"`
	Password     string        `envconfig:"ADSDIR_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADSDIR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADSDIR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADSDIR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADSDIR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADSDIR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADSDIR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ADSDIR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ADSDIR_JWT_ISSUER" default:"adsdir"`
	ExpirationMinutes int    `envconfig:"ADSDIR_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ADSDIR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ADSDIR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ADSDIR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ADSDIR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ADSDIR_ARGON_KEY_LEN" default:"32"`
}

type BillingConfig struct {
	// VATPercent is the policy VAT rate applied to invoice subtotals.
	VATPercent        float64 `envconfig:"ADSDIR_BILLING_VAT_PERCENT" default:"15"`
	InvoiceDueDays    int     `envconfig:"ADSDIR_BILLING_INVOICE_DUE_DAYS" default:"7"`
	NumberingAttempts int     `envconfig:"ADSDIR_BILLING_NUMBERING_ATTEMPTS" default:"5"`
}

type CronConfig struct {
	Interval  time.Duration `envconfig:"ADSDIR_CRON_INTERVAL" default:"1h"`
	LockKey   string        `envconfig:"ADSDIR_CRON_LOCK_KEY" default:"adsdir:cron:lock"`
	LockTTL   time.Duration `envconfig:"ADSDIR_CRON_LOCK_TTL" default:"55m"`
	AuditSize int           `envconfig:"ADSDIR_CRON_AUDIT_BATCH_SIZE" default:"500"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ADSDIR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ADSDIR_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || strings.EqualFold(db.Driver, DriverSQLite) {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}

	db.Driver = DriverPostgres
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := []struct {
		name  string
		value string
	}{
		{"ADSDIR_DB_HOST", db.Host},
		{"ADSDIR_DB_USER", db.User},
		{"ADSDIR_DB_NAME", db.Name},
	}
	for _, entry := range required {
		if entry.value == "" {
			missing = append(missing, entry.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either ADSDIR_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
