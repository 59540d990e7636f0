package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/barbot/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads the dotenv file (the one named by -env, or ./.env when it
// exists) into the process environment and overlays variables found via
// lookup. Variables already set in the environment win over the file.
func parseEnv(config *Config, args []string, lookup func(string) (string, bool)) error {
	if err := loadDotEnv(flagx.EnvFilePath(args)); err != nil {
		return err
	}

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(name); ok {
			*dst = splitList(v)
		}
	}

	str("SERVER_ADDRESS", &config.EndpointAddrHTTP)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("ADMIN_USERNAME", &config.AdminUsername)
	str("ADMIN_EMAIL", &config.AdminEmail)
	str("ADMIN_FULL_NAME", &config.AdminFullName)
	str("ADMIN_PASSWORD", &config.AdminPassword)
	str("ANTHROPIC_API_KEY", &config.AnthropicAPIKey)
	str("ANTHROPIC_BASE_URL", &config.AnthropicBaseURL)
	str("CHAT_MODEL", &config.ChatModel)
	str("LOG_LEVEL", &config.LogLevel)
	list("CHAT_ALLOWED_TOPICS", &config.ChatAllowedTopics)
	list("CORS_ALLOWED_ORIGINS", &config.CORSAllowedOrigins)

	if v, ok := lookup("ACCESS_TOKEN_EXPIRE_MINUTES"); ok && v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		config.BcryptCost = cost
	}
	if v, ok := lookup("CHAT_MAX_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHAT_MAX_TOKENS: %w", err)
		}
		config.ChatMaxTokens = n
	}
	if v, ok := lookup("REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REQUEST_TIMEOUT: %w", err)
		}
		config.RequestTimeout = d
	}
	return nil
}

func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", defaultEnvFile, err)
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
