// Package config provides configuration management for the content importer.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults live in the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Log: logging level and format
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: S3/MinIO credentials for the s3 asset backend
//   - Fetch: timeouts and headers for asset downloads
//   - Import: concurrency, retry policy and default input patterns
//   - Assets: sink backend, folders, fallbacks and the durable index path
//
// List values such as IMPORT_SERIES are comma separated.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Import.Concurrency)
package config
