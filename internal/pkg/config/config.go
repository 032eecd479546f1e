package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port       string `env:"PORT,        default=8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	LogPretty  bool   `env:"LOG_PRETTY,  default=false"`
	CORSOrigin string `env:"CORS_ORIGIN, default=*"`
	// StoreDriver selects the credential store: mongo or memory.
	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	Mongo      MongoConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	Hashing    HashingConfig
	APIKey     APIKeyConfig
	Pagination PaginationConfig
	RateLimit  RateLimitConfig
	Admin      AdminConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_PRIVATE_KEY"`
	AccessTTL  time.Duration `env:"JWT_SIGN_EXPIRES_IN,     default=15m"`
	RefreshTTL time.Duration `env:"REFRESH_SIGN_EXPIRES_IN, default=168h"`
}

// EncryptionConfig holds the API key cipher settings. Key and IV are hex.
type EncryptionConfig struct {
	Algorithm string `env:"ENCRYPTION_ALGORITHM, default=aes-256-cbc"`
	Key       string `env:"ENCRYPTION_KEY"`
	IV        string `env:"ENCRYPTION_IV"`
}

type HashingConfig struct {
	Cost int `env:"BCRYPT_SALT_ROUNDS, default=10"`
	// Workers bounds concurrent bcrypt operations; 0 means one per CPU.
	Workers int `env:"HASH_WORKERS, default=0"`
}

type APIKeyConfig struct {
	Prefix string `env:"API_KEY_PREFIX, default=dev_"`
	Length int    `env:"API_KEY_LENGTH, default=32"`
}

type PaginationConfig struct {
	MinPerPage     int `env:"PAGINATION_MIN_PER_PAGE,     default=2"`
	DefaultPerPage int `env:"PAGINATION_DEFAULT_PER_PAGE, default=20"`
	MaxPerPage     int `env:"PAGINATION_MAX_PER_PAGE,     default=50"`
}

type RateLimitConfig struct {
	ShortLimit int           `env:"RATE_LIMIT_SHORT_LIMIT, default=3"`
	ShortTTL   time.Duration `env:"RATE_LIMIT_SHORT_TTL,   default=1s"`
	LongLimit  int           `env:"RATE_LIMIT_LONG_LIMIT,  default=100"`
	LongTTL    time.Duration `env:"RATE_LIMIT_LONG_TTL,    default=1m"`
}

// AdminConfig is only read by the seed command.
type AdminConfig struct {
	Email    string `env:"ADMIN_DEFAULT_EMAIL"`
	Username string `env:"ADMIN_DEFAULT_USERNAME, default=admin"`
	Name     string `env:"ADMIN_DEFAULT_NAME,     default=Administrator"`
	Password string `env:"ADMIN_DEFAULT_PASSWORD"`
	APIKey   string `env:"ADMIN_DEFAULT_API_KEY"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY is required"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.Encryption.Key == "" || c.Encryption.IV == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY and ENCRYPTION_IV are required"))
	}
	if c.StoreDriver != StoreMongo && c.StoreDriver != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreMongo, StoreMemory))
	}
	if c.IsProduction() && c.StoreDriver == StoreMemory {
		errs = append(errs, errors.New("STORE_DRIVER=memory is not allowed in production"))
	}
	p := c.Pagination
	if p.MinPerPage < 1 || p.MinPerPage > p.DefaultPerPage || p.DefaultPerPage > p.MaxPerPage {
		errs = append(errs, errors.New("pagination bounds must satisfy 1 <= min <= default <= max"))
	}
	r := c.RateLimit
	if r.ShortLimit < 1 || r.LongLimit < 1 || r.ShortTTL <= 0 || r.LongTTL <= 0 {
		errs = append(errs, errors.New("rate limits and windows must be positive"))
	}
	if c.APIKey.Length < 1 {
		errs = append(errs, errors.New("API_KEY_LENGTH must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
