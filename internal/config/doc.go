// Package config provides centralized configuration management for the
// Venta Perdida service. It loads settings from defaults, an optional YAML
// file and environment variables, validates them, and loads the static
// recoding tables used by the ingestion pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (config.yaml, configs/config.yaml or VP_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern VP_<SECTION>_<FIELD>:
//
//	VP_SERVER_PORT=8080
//	VP_SOURCES_BACKEND=github
//	VP_SOURCES_ROOT=acme/ventas
//	VP_SOURCES_TOKEN=...
//	VP_CACHE_REDIS_ADDR=localhost:6379
//
// # Tables
//
// Provider recoding, the RRP brand token, plaza and division display names
// and header aliases live in configs/tables.yaml:
//
//	tables, err := config.LoadTables(cfg.Sources.TablesFile)
//	if err != nil {
//	    tables = config.DefaultTables()
//	}
//
// # Credentials
//
// CheckCredentials reports a missing token or service account file for the
// selected backend. Binaries exit when it fails.
package config
