package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/andamios/andamios-api/internal/core/security"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// DefaultSigningKey is the development signing key shipped in the defaults.
const DefaultSigningKey = "dev-secret-key-change-in-production"

// placeholderSigningKeys are published keys that must never sign tokens in
// production.
var placeholderSigningKeys = []string{
	DefaultSigningKey,
	"your-production-secret-key-here",
	"your-secret-key-here-change-in-production",
}

// ErrConfigurationInvalid is returned by Validate. The process must not serve
// traffic with a configuration that fails validation.
var ErrConfigurationInvalid = errors.New("configuration invalid")

type Config struct {
	Environment    string        `env:"ENVIRONMENT,     default=development"`
	Host           string        `env:"API_HOST,        default=0.0.0.0"`
	Port           string        `env:"API_PORT,        default=8001"`
	LogLevel       string        `env:"LOG_LEVEL,       default=info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=30s"`

	Auth     AuthConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET_KEY,                  default=dev-secret-key-change-in-production"`
	JWTAlgorithm     string        `env:"JWT_ALGORITHM,                   default=HS256"`
	TokenTTLMinutes  int           `env:"JWT_ACCESS_TOKEN_EXPIRE_MINUTES, default=30"`
	BcryptCost       int           `env:"BCRYPT_COST,                     default=12"`
	HashWorkers      int           `env:"HASH_WORKERS,                    default=0"`
	LoginMaxFailures int           `env:"LOGIN_MAX_FAILURES,              default=5"`
	LoginWindow      time.Duration `env:"LOGIN_FAILURE_WINDOW,            default=15m"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=memory"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=andamios"`
}

type PostgresConfig struct {
	URL string `env:"DATABASE_URL, default=postgres://localhost:5432/andamios?sslmode=disable"`
}

type RedisConfig struct {
	// Addr left empty disables the login throttle.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type CORSConfig struct {
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS, default=http://localhost:3000,http://localhost:8080"`
}

// TokenTTL returns the configured access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Origins splits CORS_ALLOW_ORIGINS into a list.
func (c *Config) Origins() []string {
	return splitList(c.CORS.AllowOrigins)
}

// Load reads `.env.<ENVIRONMENT>` and `.env` when present, then decodes the
// environment with go-envconfig. Variables already set in the process
// environment take precedence over both files.
func Load(ctx context.Context) (*Config, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = EnvDevelopment
	}
	for _, file := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom decodes configuration from an arbitrary lookuper. Tests use it
// with envconfig.MapLookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the auth core depends on. Every problem is
// reported; the returned error wraps ErrConfigurationInvalid.
func (c *Config) Validate() error {
	var problems []error

	switch c.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		problems = append(problems, fmt.Errorf("ENVIRONMENT must be one of development, test, production; got %q", c.Environment))
	}

	if len(c.Auth.JWTSecret) < security.MinSigningKeyLength {
		problems = append(problems, fmt.Errorf("JWT_SECRET_KEY must be at least %d characters long", security.MinSigningKeyLength))
	}
	if c.IsProduction() && isPlaceholderKey(c.Auth.JWTSecret) {
		problems = append(problems, errors.New("JWT_SECRET_KEY must be set to a secure value in production"))
	}
	if _, err := security.HMACMethod(c.Auth.JWTAlgorithm); err != nil {
		problems = append(problems, fmt.Errorf("JWT_ALGORITHM: %w", err))
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		problems = append(problems, errors.New("JWT_ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.LoginMaxFailures < 0 || (c.Redis.Addr != "" && c.Auth.LoginWindow <= 0) {
		problems = append(problems, errors.New("LOGIN_MAX_FAILURES and LOGIN_FAILURE_WINDOW must be positive"))
	}

	switch c.Store.Driver {
	case DriverMemory:
		if c.IsProduction() {
			problems = append(problems, errors.New("STORE_DRIVER=memory is not allowed in production"))
		}
	case DriverMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			problems = append(problems, errors.New("MONGO_URI is required"))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Postgres.URL) == "" {
			problems = append(problems, errors.New("DATABASE_URL is required"))
		}
	default:
		problems = append(problems, fmt.Errorf("STORE_DRIVER must be one of memory, mongo, postgres; got %q", c.Store.Driver))
	}

	if c.IsProduction() && strings.Contains(c.CORS.AllowOrigins, "localhost") {
		problems = append(problems, errors.New("CORS_ALLOW_ORIGINS should not include localhost in production"))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w for environment %q: %w", ErrConfigurationInvalid, c.Environment, errors.Join(problems...))
}

func isPlaceholderKey(key string) bool {
	for _, p := range placeholderSigningKeys {
		if key == p {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
