package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gqlauth/internal/flagx"
	"github.com/dmitrijs2005/gqlauth/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. RequestTimeout
// accepts either a duration string like "5s" or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	SessionFile        string         `json:"session_file"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	LogLevel           string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by -c
// or -config. Keys missing from the file keep their current value. Read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	jc := JsonConfig{
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		SessionFile:        cfg.SessionFile,
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
		LogLevel:           cfg.LogLevel,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.SessionFile = jc.SessionFile
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.LogLevel = jc.LogLevel
}
