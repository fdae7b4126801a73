package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		start       *Config
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-b", "memory", "-s", "secret", "-i", "cms",
			"-t", "1", "-r", "3", "-m", "lax", "-l", "debug",
		},
			start: &Config{},
			expected: &Config{
				EndpointAddrGRPC:             "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				StorageBackend:               "memory",
				SecretKey:                    "secret",
				Issuer:                       "cms",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				SameSitePolicy:               "lax",
				LogLevel:                     "debug",
			}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-x", "1", "-s", "secret"},
			start: &Config{AccessTokenValidityDuration: 90 * time.Second},
			expected: &Config{
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 90 * time.Second,
			}},
		{name: "bad duration", args: []string{"cmd", "-t", "soon"}, start: &Config{}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := tt.start

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
