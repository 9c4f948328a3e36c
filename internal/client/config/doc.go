// Package config loads runtime configuration for the docsum CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, after an optional .env file is loaded (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend API
//	-s string   path of the local storage file
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "api_url": "http://localhost:3001",
//	  "frontend_url": "http://localhost:3000",
//	  "storage_path": "docsum.db",
//	  "request_timeout": "30s",
//	  "oauth_timeout": "2m",
//	  "log_level": "info"
//	}
package config
