package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver      string        `env:"DB_DRIVER"      env-default:"mysql"`
	DBHost        string        `env:"DB_HOST"        env-default:"localhost"`
	DBPort        string        `env:"DB_PORT"        env-default:"3306"`
	DBUser        string        `env:"DB_USER"        env-default:"taskuser"`
	DBPassword    string        `env:"DB_PASSWORD"    env-default:"taskpassword"`
	DBName        string        `env:"DB_NAME"        env-default:"task_management"`
	DBSSLMode     string        `env:"DB_SSLMODE"     env-default:"disable"`
	RedisHost     string        `env:"REDIS_HOST"     env-default:"localhost"`
	RedisPort     string        `env:"REDIS_PORT"     env-default:"6379"`
	SessionSecret string        `env:"SESSION_SECRET" env-default:"default-secret-key-change-me"`
	JWTSecret     string        `env:"JWT_SECRET"     env-default:"default-jwt-secret-change-me"`
	JWTTTL        time.Duration `env:"JWT_TTL"        env-default:"24h"`
	GinMode       string        `env:"GIN_MODE"       env-default:"debug"`
	Port          string        `env:"PORT"           env-default:"8080"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	// RateLimit uses the ulule/limiter format, e.g. "300-M". Empty disables limiting.
	RateLimit   string `env:"RATE_LIMIT"   env-default:"300-M"`
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"*"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load(envFile)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	return nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
