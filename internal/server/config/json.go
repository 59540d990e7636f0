package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/barbot/internal/flagx"
	"github.com/dmitrijs2005/barbot/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// accept "30m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	AdminUsername               string         `json:"admin_username"`
	AdminEmail                  string         `json:"admin_email"`
	AdminFullName               string         `json:"admin_full_name"`
	AdminPassword               string         `json:"admin_password"`
	AnthropicAPIKey             string         `json:"anthropic_api_key"`
	AnthropicBaseURL            string         `json:"anthropic_base_url"`
	ChatModel                   string         `json:"chat_model"`
	ChatMaxTokens               int            `json:"chat_max_tokens"`
	ChatAllowedTopics           []string       `json:"chat_allowed_topics"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins"`
	LogLevel                    string         `json:"log_level"`
	RequestTimeout              timex.Duration `json:"request_timeout"`
}

// parseJson overlays values from the file named by -c/-config. Keys absent
// from the file keep their current value.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminFullName, c.AdminFullName)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.AnthropicAPIKey, c.AnthropicAPIKey)
	setString(&config.AnthropicBaseURL, c.AnthropicBaseURL)
	setString(&config.ChatModel, c.ChatModel)
	if c.ChatMaxTokens != 0 {
		config.ChatMaxTokens = c.ChatMaxTokens
	}
	if c.ChatAllowedTopics != nil {
		config.ChatAllowedTopics = c.ChatAllowedTopics
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
