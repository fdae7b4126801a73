package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/gqlauth/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays GQLAUTH_* environment variables. A dotenv file named by
// -env-file is loaded first (a missing ./.env is fine); variables already set
// in the environment win over the file. Unset variables leave the current
// value alone. Malformed values panic, like the other sources.
func parseEnv(config *Config) {
	if err := loadDotenv(flagx.EnvFileFlag()); err != nil {
		panic(err)
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}

func loadDotenv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
