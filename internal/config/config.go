package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the API server and the operator CLI.
type Config struct {
	AppName string `envconfig:"APP_NAME" default:"Inventory Ledger v1.0"`
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	Port    string `envconfig:"PORT" default:"5000"`

	DB DatabaseConfig `ignored:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"go-inventory-ledger"`

	// RegistrationOpen leaves POST /auth/register public. When false only admins may register users.
	RegistrationOpen bool     `envconfig:"REGISTRATION_OPEN" default:"true"`
	CORSOrigins      []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	SummaryCacheTTL time.Duration `envconfig:"SUMMARY_CACHE_TTL" default:"30s"`

	Logger LoggerConfig `ignored:"true"`

	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"inventory"`

	SeedAdminEmail    string `envconfig:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD"`
}

// DatabaseConfig selects and addresses the persistence backend.
type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"`
	URL        string `envconfig:"DATABASE_URL"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	User       string `envconfig:"DB_USER" default:"postgres"`
	Password   string `envconfig:"DB_PASSWORD"`
	Name       string `envconfig:"DB_NAME" default:"inventory"`
	Port       string `envconfig:"DB_PORT" default:"5432"`
	TimeZone   string `envconfig:"DB_TIMEZONE" default:"UTC"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/inventory.db"`
	LogLevel   string `envconfig:"DB_LOG_LEVEL" default:"warn"`
}

// LoggerConfig mirrors the zap/lumberjack options in pkg/logger.
type LoggerConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE" default:"logs/inventory.log"`
	MaxSize    int    `envconfig:"LOG_MAX_SIZE" default:"100"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	MaxAge     int    `envconfig:"LOG_MAX_AGE" default:"7"`
	Compress   bool   `envconfig:"LOG_COMPRESS" default:"false"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; the environment wins over it
	_ = godotenv.Load()

	var cfg Config
	// nested sections are processed on their own so their keys stay unprefixed
	for _, spec := range []any{&cfg, &cfg.DB, &cfg.Logger} {
		if err := envconfig.Process("", spec); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", c.DB.Driver)
	}
	return nil
}

// PostgresDSN returns DATABASE_URL or a DSN assembled from the DB_* keys.
func (c DatabaseConfig) PostgresDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.TimeZone,
	)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// LoadDatabase reads only the database and logger sections. The operator CLI
// uses it so it can run without JWT settings.
func LoadDatabase() (DatabaseConfig, LoggerConfig, error) {
	_ = godotenv.Load()

	var (
		db  DatabaseConfig
		log LoggerConfig
	)
	for _, spec := range []any{&db, &log} {
		if err := envconfig.Process("", spec); err != nil {
			return db, log, fmt.Errorf("failed to load config: %w", err)
		}
	}
	return db, log, nil
}
