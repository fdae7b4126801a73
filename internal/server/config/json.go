package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gqlauth/internal/flagx"
	"github.com/dmitrijs2005/gqlauth/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1h" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string           `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string           `json:"database_dsn"`
	StorageBackend               string           `json:"storage_backend"`
	RedisAddr                    string           `json:"redis_addr"`
	RedisPassword                string           `json:"redis_password"`
	RedisDB                      int              `json:"redis_db"`
	RedisKeyPrefix               string           `json:"redis_key_prefix"`
	SecretKey                    string           `json:"secret_key"`
	Issuer                       string           `json:"issuer"`
	AccessTokenValidityDuration  timex.Duration   `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration   `json:"refresh_token_validity_duration"`
	SameSitePolicy               string           `json:"samesite_policy"`
	RestrictRequests             bool             `json:"restrict_requests"`
	PermissionType               string           `json:"permission_type"`
	SchemaID                     int64            `json:"schema_id"`
	GranularSchemas              map[string]int64 `json:"granular_schemas"`
	Environment                  string           `json:"environment"`
	LogLevel                     string           `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Keys missing from the file keep their current value.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.StorageBackend = c.StorageBackend
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.RedisKeyPrefix = c.RedisKeyPrefix
	config.SecretKey = c.SecretKey
	config.Issuer = c.Issuer
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.SameSitePolicy = c.SameSitePolicy
	config.RestrictRequests = c.RestrictRequests
	config.PermissionType = c.PermissionType
	config.SchemaID = c.SchemaID
	config.GranularSchemas = c.GranularSchemas
	config.Environment = c.Environment
	config.LogLevel = c.LogLevel
}

func toJson(config *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:             config.EndpointAddrGRPC,
		DatabaseDSN:                  config.DatabaseDSN,
		StorageBackend:               config.StorageBackend,
		RedisAddr:                    config.RedisAddr,
		RedisPassword:                config.RedisPassword,
		RedisDB:                      config.RedisDB,
		RedisKeyPrefix:               config.RedisKeyPrefix,
		SecretKey:                    config.SecretKey,
		Issuer:                       config.Issuer,
		AccessTokenValidityDuration:  timex.Duration{Duration: config.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: config.RefreshTokenValidityDuration},
		SameSitePolicy:               config.SameSitePolicy,
		RestrictRequests:             config.RestrictRequests,
		PermissionType:               config.PermissionType,
		SchemaID:                     config.SchemaID,
		GranularSchemas:              config.GranularSchemas,
		Environment:                  config.Environment,
		LogLevel:                     config.LogLevel,
	}
}
