// Package config loads runtime configuration for the barbot terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. BARBOT_SERVER_URL from the environment.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the barbot server
//	-t int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "90s"
//	}
package config
