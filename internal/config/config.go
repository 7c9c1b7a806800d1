package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SAFEHAVEN"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Auth    AuthConfig    `mapstructure:"auth"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	Commit    string `mapstructure:"commit"`
	BuildTime string `mapstructure:"build_time"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
}

// CacheConfig enables the Redis read-through cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	Provider        string   `mapstructure:"provider"`
	JWTSecret       string   `mapstructure:"jwt_secret"`
	JWTIssuer       string   `mapstructure:"jwt_issuer"`
	GoogleClientIDs []string `mapstructure:"google_client_ids"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.commit", "")
	v.SetDefault("server.build_time", "")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "data/safehaven.db")
	v.SetDefault("storage.migrations_dir", "")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("auth.provider", "jwt")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "safehaven")
	v.SetDefault("auth.google_client_ids", []string{})

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("logging.directory", "")
	v.SetDefault("logging.level", "info")
}

// Load reads .env (if present), config/config.yaml under root (if present) and
// SAFEHAVEN_* environment variables, in increasing priority.
func Load(root string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(filepath.Join(root, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Auth.Provider = strings.ToLower(strings.TrimSpace(c.Auth.Provider))
	c.Auth.GoogleClientIDs = splitList(c.Auth.GoogleClientIDs)
	c.CORS.AllowedOrigins = splitList(c.CORS.AllowedOrigins)
}

// splitList flattens comma-separated entries so env vars and YAML lists agree.
func splitList(in []string) []string {
	out := []string{}
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Auth.Provider {
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required for the jwt provider")
		}
	case "google":
		if len(c.Auth.GoogleClientIDs) == 0 {
			return errors.New("auth.google_client_ids is required for the google provider")
		}
	default:
		return fmt.Errorf("unknown auth.provider %q", c.Auth.Provider)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	return nil
}
