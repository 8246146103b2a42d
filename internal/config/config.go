// Package config loads server configuration from an optional YAML file
// with TASKBOARD_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level server configuration.
type Config struct {
	// Addr is the listen address for the HTTP/WebSocket server.
	Addr string `mapstructure:"addr"`

	// DatabasePath is the SQLite database file (":memory:" for tests).
	DatabasePath string `mapstructure:"database_path"`

	// JWTSecret signs session tokens. Override it outside development.
	JWTSecret string `mapstructure:"jwt_secret"`

	// TokenTTL is how long issued session tokens stay valid.
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// BcryptCost is the password hashing cost.
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// CORSOrigins is the comma-separated allowed origin list.
	CORSOrigins string `mapstructure:"cors_origins"`

	// OverdueScanInterval is how often the overdue scanner runs.
	// Zero disables it.
	OverdueScanInterval time.Duration `mapstructure:"overdue_scan_interval"`

	// Seed populates development users and sample tasks on startup.
	Seed bool `mapstructure:"seed"`
}

// Load reads configuration from the YAML file at path (if it exists) and
// the environment. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_path", "taskboard.db")
	v.SetDefault("jwt_secret", "dev-secret-change-in-production")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("overdue_scan_interval", time.Hour)
	v.SetDefault("seed", false)

	v.SetEnvPrefix("taskboard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
