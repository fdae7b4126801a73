package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Overlay(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("GQLAUTH_SECRET_KEY", "env-secret")
	t.Setenv("GQLAUTH_ACCESS_TOKEN_VALIDITY", "15m")
	t.Setenv("GQLAUTH_RESTRICT_REQUESTS", "true")
	t.Setenv("GQLAUTH_GRANULAR_SCHEMAS", "editors:7,admins:8")
	t.Setenv("GQLAUTH_REDIS_DB", "3")

	cfg := &Config{}
	cfg.LoadDefaults()
	want := *cfg
	want.SecretKey = "env-secret"
	want.AccessTokenValidityDuration = 15 * time.Minute
	want.RestrictRequests = true
	want.GranularSchemas = map[string]int64{"editors": 7, "admins": 8}
	want.RedisDB = 3

	parseEnv(cfg)

	assert.Empty(t, cmp.Diff(want, *cfg))
}

func TestParseEnv_DotenvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GQLAUTH_ISSUER=dotenv-issuer\nGQLAUTH_SAMESITE_POLICY=none\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GQLAUTH_ISSUER")
		os.Unsetenv("GQLAUTH_SAMESITE_POLICY")
	})
	// Variables already in the environment beat the file.
	t.Setenv("GQLAUTH_SAMESITE_POLICY", "lax")

	os.Args = []string{"testbin", "-env-file", path}

	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "dotenv-issuer", cfg.Issuer)
	assert.Equal(t, "lax", cfg.SameSitePolicy)
}

func TestParseEnv_Panics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("missing env file", func(t *testing.T) {
		os.Args = []string{"testbin", "-env-file", filepath.Join(t.TempDir(), "absent.env")}
		assert.Panics(t, func() { parseEnv(&Config{}) })
	})

	t.Run("malformed value", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("GQLAUTH_REDIS_DB", "three")
		assert.Panics(t, func() { parseEnv(&Config{}) })
	})
}
