package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Driver string
		DSN    string
	}
	Auth struct {
		JWTSecret        string
		RegisterPassword string
		TokenTTLMinutes  int
		CookieSecure     bool
		SignInPath       string
	}
	Export struct {
		DataDir       string
		MaxConcurrent int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	return load(".")
}

func load(dir string) (Config, error) {
	// Variables already present in the environment win over .env.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetEnvPrefix("FINANCAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/financas.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.registerpassword", "")
	v.SetDefault("auth.tokenttlminutes", 720)
	v.SetDefault("auth.cookiesecure", false)
	v.SetDefault("auth.signinpath", "/auth/signin")
	v.SetDefault("export.datadir", "data/exports")
	v.SetDefault("export.maxconcurrent", 2)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	if strings.TrimSpace(c.Auth.RegisterPassword) == "" {
		return errors.New("auth registration password is required")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return errors.New("auth token ttl must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database dsn is required")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	return nil
}
