// Package config loads service settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Redis   RedisConfig   `koanf:"redis"`
	Auth    AuthConfig    `koanf:"auth"`
	Log     LogConfig     `koanf:"log"`
	Tiles   TilesConfig   `koanf:"tiles"`
}

type ServerConfig struct {
	Port      string `koanf:"port"`
	StaticDir string `koanf:"static_dir"`
	// Per-IP requests per minute on register and login; 0 disables.
	AuthRateLimit int `koanf:"auth_rate_limit"`
}

type StorageConfig struct {
	// sqlite, postgres, mongo or memory
	Backend     string `koanf:"backend"`
	SqlitePath  string `koanf:"sqlite_path"`
	DatabaseURL string `koanf:"database_url"`
	MongoURI    string `koanf:"mongodb_uri"`
	MongoDB     string `koanf:"mongodb_database"`
}

type RedisConfig struct {
	// Empty disables the latest-location cache.
	Addr string        `koanf:"addr"`
	TTL  time.Duration `koanf:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type TilesConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	Concurrency int           `koanf:"concurrency"`
	TiandituKey string        `koanf:"tianditu_key"`
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Port: "3000", StaticDir: "public", AuthRateLimit: 20},
		Storage: StorageConfig{Backend: "sqlite", SqlitePath: "location_tracker.db", MongoDB: "location_tracker"},
		Redis:   RedisConfig{TTL: 24 * time.Hour},
		Auth:    AuthConfig{TokenTTL: 24 * time.Hour},
		Log:     LogConfig{Level: "info", Format: "json"},
		Tiles:   TilesConfig{Timeout: 5 * time.Second, Concurrency: 3},
	}
}

// Flat environment names that don't follow the SECTION_KEY convention.
var envAliases = map[string]string{
	"port":         "server.port",
	"database_url": "storage.database_url",
	"mongodb_uri":  "storage.mongodb_uri",
	"db_path":      "storage.sqlite_path",
	"jwt_secret":   "auth.jwt_secret",
}

var sections = []string{"server", "storage", "redis", "auth", "log", "tiles"}

// envKey maps STORAGE_SQLITE_PATH to storage.sqlite_path. Variables outside
// the known sections are dropped.
func envKey(name string) string {
	name = strings.ToLower(name)
	if alias, ok := envAliases[name]; ok {
		return alias
	}
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(name, s+"_"); ok && rest != "" {
			return s + "." + rest
		}
	}
	return ""
}

// Load reads .env (if present), then layers defaults, the YAML file and
// environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config: defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load config: environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))

	switch c.Storage.Backend {
	case "sqlite":
		if strings.TrimSpace(c.Storage.SqlitePath) == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return errors.New("storage.database_url is required for the postgres backend")
		}
	case "mongo":
		if strings.TrimSpace(c.Storage.MongoURI) == "" {
			return errors.New("storage.mongodb_uri is required for the mongo backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server.port is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
