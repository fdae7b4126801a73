package config

import "time"

// Config holds runtime settings for the gqlauth CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gqlauth gRPC endpoint.
//   - SessionFile: SQLite file where the current session is kept between runs.
//   - RequestTimeout: deadline applied to every call to the server.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerEndpointAddr string
	SessionFile        string
	RequestTimeout     time.Duration
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = "gqlauth-session.db"
	c.RequestTimeout = 5 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
