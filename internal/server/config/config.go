// Package config assembles the barbot server configuration from defaults,
// an optional JSON file, the environment (including a .env file) and
// command-line flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the server and the admin CLI.
type Config struct {
	EndpointAddrHTTP string
	DatabaseDSN      string

	// SecretKey signs access tokens (HS256). Empty means a random key is
	// generated at start-up and tokens do not survive a restart.
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int

	AdminUsername string
	AdminEmail    string
	AdminFullName string
	AdminPassword string

	AnthropicAPIKey   string
	AnthropicBaseURL  string
	ChatModel         string
	ChatMaxTokens     int
	ChatAllowedTopics []string

	CORSAllowedOrigins []string
	LogLevel           string
	RequestTimeout     time.Duration
}

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "adminpassword"
)

// LoadDefaults populates Config with development defaults. The admin
// password and empty secret are not fit for production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.DatabaseDSN = "sqlite://barbot.db"
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.BcryptCost = bcrypt.DefaultCost
	c.AdminUsername = DefaultAdminUsername
	c.AdminEmail = "admin@example.com"
	c.AdminFullName = "Admin User"
	c.AdminPassword = DefaultAdminPassword
	c.AnthropicAPIKey = ""
	c.AnthropicBaseURL = "https://api.anthropic.com"
	c.ChatModel = "claude-3-7-sonnet-20250219"
	c.ChatMaxTokens = 2000
	c.ChatAllowedTopics = nil
	c.CORSAllowedOrigins = []string{"*"}
	c.LogLevel = "info"
	c.RequestTimeout = 60 * time.Second
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.AccessTokenValidityDuration <= 0 {
		return fmt.Errorf("access token validity must be positive, got %s", c.AccessTokenValidityDuration)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return fmt.Errorf("admin username and password are required")
	}
	if c.ChatMaxTokens <= 0 {
		return fmt.Errorf("chat max tokens must be positive, got %d", c.ChatMaxTokens)
	}
	return nil
}

// Load builds a Config from args (without the program name) and the
// process environment.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, args, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
