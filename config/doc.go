// Package config loads service configuration from a YAML file, an optional
// .env file and environment variables using viper.
//
// Environment variables override file values. Keys are upper-cased and nested
// with underscores under the service prefix, so INGEST_FETCH_MAX_RETRIES sets
// fetch.max_retries for the "ingest" service.
//
//	var cfg AppConfig
//	err := config.LoadConfig("ingest", &cfg, config.WithConfigFile(path))
package config
