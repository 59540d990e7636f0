package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "127.0.0.1:9090", "-d", "memory://", "-s", "secret", "-t", "1", "-b", "4", "-l", "debug"},
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:9090",
				DatabaseDSN:                 "memory://",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 1 * time.Minute,
				BcryptCost:                  4,
				LogLevel:                    "debug",
			},
		},
		{
			name: "foreign flags ignored",
			args: []string{"-c", "cfg.json", "-env", "x.env", "-a", ":1"},
			expected: &Config{
				EndpointAddrHTTP:            ":1",
				AccessTokenValidityDuration: 90 * time.Second,
			},
		},
		{
			name:    "bad int",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{AccessTokenValidityDuration: 90 * time.Second}

			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
