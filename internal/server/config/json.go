package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/jobtracker/internal/flagx"
	"github.com/dmitrijs2005/jobtracker/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted. Fields
// left out of the file keep their current value.
type JsonConfig struct {
	EndpointAddrHTTP          *string         `json:"endpoint_addr_http"`
	DatabaseDSN               *string         `json:"database_dsn"`
	RedisAddr                 *string         `json:"redis_addr"`
	RedisPassword             *string         `json:"redis_password"`
	RedisDB                   *int            `json:"redis_db"`
	SessionSecret             *string         `json:"session_secret"`
	CSRFSecret                *string         `json:"csrf_secret"`
	SessionTTL                *timex.Duration `json:"session_ttl"`
	Environment               *string         `json:"environment"`
	SecureCookies             *bool           `json:"secure_cookies"`
	CSRFDevelopmentMode       *bool           `json:"csrf_development_mode"`
	CSRFProtectedContentTypes []string        `json:"csrf_protected_content_types"`
	LogLevel                  *string         `json:"log_level"`
	LogonAttemptsPerMinute    *int            `json:"logon_attempts_per_minute"`
	TrustProxy                *bool           `json:"trust_proxy"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded and config is left untouched.
//
// The file is unmarshalled into a JsonConfig and every field present in it
// is copied into config. If the file cannot be read or contains invalid
// JSON, the function panics: the server must not start with a half-applied
// configuration.
//
// Fields populated: every Config field, by its snake_case JSON name
// (e.g. endpoint_addr_http, session_ttl, trust_proxy).
//
// The caller merges these values with defaults, the environment and flags as
// part of LoadConfig.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JSONConfigFile()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	// overlay only what the file sets

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.RedisPassword, c.RedisPassword)
	setIf(&config.RedisDB, c.RedisDB)
	setIf(&config.SessionSecret, c.SessionSecret)
	setIf(&config.CSRFSecret, c.CSRFSecret)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	setIf(&config.Environment, c.Environment)
	setIf(&config.SecureCookies, c.SecureCookies)
	setIf(&config.CSRFDevelopmentMode, c.CSRFDevelopmentMode)
	if c.CSRFProtectedContentTypes != nil {
		config.CSRFProtectedContentTypes = c.CSRFProtectedContentTypes
	}
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LogonAttemptsPerMinute, c.LogonAttemptsPerMinute)
	setIf(&config.TrustProxy, c.TrustProxy)
}

// setIf copies *src into *dst when src is non-nil. A nil src means the key
// was absent from the file.
func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
