package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional change feed)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Remote profile service
	ProfileBaseURL string

	// Exports
	ExportDir string

	// Backup worker
	BackupInterval time.Duration

	// Display
	Currency string

	// Backend selection
	DataBackend string

	// Demo data seeding
	SeedDemo bool
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finguard.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finguard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_changes"),

		ProfileBaseURL: getEnv("PROFILE_BASE_URL", ""),

		ExportDir: getEnv("EXPORT_DIR", "./exports"),

		BackupInterval: getEnvDuration("BACKUP_INTERVAL", 30*time.Second),

		Currency: getEnv("CURRENCY", "₹"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SeedDemo: getEnvBool("SEED_DEMO", false),
	}

	return cfg
}

// Validate checks the whole configuration and reports every problem at
// once rather than failing on the first.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ProfileBaseURL != "" {
		if parsedURL, err := url.Parse(c.ProfileBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid profile base URL '%s': %v", c.ProfileBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid profile base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.ExportDir == "" {
		errs = append(errs, "export directory cannot be empty")
	}

	if c.BackupInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid backup interval %v: must be at least 1 second", c.BackupInterval))
	} else if c.BackupInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid backup interval %v: must be at most 24 hours", c.BackupInterval))
	}

	if c.Currency == "" {
		errs = append(errs, "currency symbol cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
