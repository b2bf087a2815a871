package config

import (
	"fmt"
	"reflect"
	"strings"

	"content-importer/core/database"
	"content-importer/core/fetch"
	"content-importer/core/logger"
	"content-importer/core/storage"
	"content-importer/feature/assets"
	"content-importer/feature/importer"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object storage used by the s3 asset backend.
	Storage storage.Config `mapstructure:"storage"`
	// Fetch holds configuration for downloading remote assets.
	Fetch fetch.Config `mapstructure:"fetch"`
	// Import holds configuration for the import run itself.
	Import importer.Config `mapstructure:"import"`
	// Assets holds configuration for asset materialization.
	Assets assets.Config `mapstructure:"assets"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. IMPORT_CONCURRENCY -> import.concurrency)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects unknown backends and drivers and clamps the concurrency
// bounds: import concurrency to [1, importer.MaxConcurrency], asset
// concurrency to [1, import concurrency).
func (c *Config) Validate() error {
	switch c.Assets.Backend {
	case BackendLocal, BackendS3:
	default:
		return fmt.Errorf("unknown assets backend %q (want %s or %s)", c.Assets.Backend, BackendLocal, BackendS3)
	}

	switch c.Database.Driver {
	case database.DriverMySQL, database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	c.Import.Concurrency = clamp(c.Import.Concurrency, 1, importer.MaxConcurrency)
	upper := c.Import.Concurrency - 1
	if upper < 1 {
		upper = 1
	}
	c.Assets.Concurrency = clamp(c.Assets.Concurrency, 1, upper)

	if c.Import.MaxAttempts < 1 {
		c.Import.MaxAttempts = 1
	}
	return nil
}

func clamp(n, lo, hi int) int {
	switch {
	case n < lo:
		return lo
	case n > hi:
		return hi
	}
	return n
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		if field.Type.Kind() == reflect.Slice {
			// Lists come from the environment as comma separated values.
			v.SetDefault(key, splitList(defaultValue))
			continue
		}
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
