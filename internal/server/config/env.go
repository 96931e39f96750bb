package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/flagx"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// EnvConfig maps environment variables onto Config. It is pre-filled from
// the current Config so that unset variables leave values untouched.
type EnvConfig struct {
	Port                      string        `env:"PORT"`
	Address                   string        `env:"HTTP_ADDR"`
	DatabaseDSN               string        `env:"DATABASE_URI"`
	RedisAddr                 string        `env:"REDIS_ADDR"`
	RedisPassword             string        `env:"REDIS_PASSWORD"`
	RedisDB                   int           `env:"REDIS_DB"`
	SessionSecret             string        `env:"SESSION_SECRET"`
	CSRFSecret                string        `env:"CSRF_SECRET"`
	SessionTTL                time.Duration `env:"SESSION_TTL"`
	Environment               string        `env:"APP_ENV"`
	SecureCookies             bool          `env:"SECURE_COOKIES"`
	CSRFDevelopmentMode       bool          `env:"CSRF_DEVELOPMENT_MODE"`
	CSRFProtectedContentTypes string        `env:"CSRF_PROTECTED_CONTENT_TYPES"`
	LogLevel                  string        `env:"LOG_LEVEL"`
	LogonAttemptsPerMinute    int           `env:"LOGON_ATTEMPTS_PER_MINUTE"`
	TrustProxy                bool          `env:"TRUST_PROXY"`
}

// parseEnv overlays values from the environment onto config.
//
// The lookup order is:
//
//	Variables already set in the process environment.
//	A dotenv file named by -env-file, or ./.env when it exists.
//
// godotenv never overrides variables that are already set, so the process
// environment wins over the file. EnvConfig is pre-filled from config,
// which means a variable that is not set keeps the current value.
// A malformed value (e.g. SESSION_TTL=abc) panics.
//
// PORT, when set, overrides HTTP_ADDR and binds to all interfaces.
func parseEnv(config *Config) {
	// file first, so it can feed envdecode
	loadDotEnv(flagx.EnvFile())

	// seed with the current values
	e := EnvConfig{
		Address:                   config.EndpointAddrHTTP,
		DatabaseDSN:               config.DatabaseDSN,
		RedisAddr:                 config.RedisAddr,
		RedisPassword:             config.RedisPassword,
		RedisDB:                   config.RedisDB,
		SessionSecret:             config.SessionSecret,
		CSRFSecret:                config.CSRFSecret,
		SessionTTL:                config.SessionTTL,
		Environment:               config.Environment,
		SecureCookies:             config.SecureCookies,
		CSRFDevelopmentMode:       config.CSRFDevelopmentMode,
		CSRFProtectedContentTypes: strings.Join(config.CSRFProtectedContentTypes, ","),
		LogLevel:                  config.LogLevel,
		LogonAttemptsPerMinute:    config.LogonAttemptsPerMinute,
		TrustProxy:                config.TrustProxy,
	}

	// decode; no variables at all is not an error
	if err := envdecode.Decode(&e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	config.EndpointAddrHTTP = e.Address
	if e.Port != "" {
		config.EndpointAddrHTTP = ":" + e.Port
	}
	config.DatabaseDSN = e.DatabaseDSN
	config.RedisAddr = e.RedisAddr
	config.RedisPassword = e.RedisPassword
	config.RedisDB = e.RedisDB
	config.SessionSecret = e.SessionSecret
	config.CSRFSecret = e.CSRFSecret
	config.SessionTTL = e.SessionTTL
	config.Environment = e.Environment
	config.SecureCookies = e.SecureCookies
	config.CSRFDevelopmentMode = e.CSRFDevelopmentMode
	config.CSRFProtectedContentTypes = splitList(e.CSRFProtectedContentTypes)
	config.LogLevel = e.LogLevel
	config.LogonAttemptsPerMinute = e.LogonAttemptsPerMinute
	config.TrustProxy = e.TrustProxy
}

// loadDotEnv loads the dotenv file at path. With an empty path it loads
// ./.env if present and silently skips it otherwise. An explicit path that
// cannot be loaded panics.
func loadDotEnv(path string) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// splitList splits a comma-separated list, trimming spaces and dropping
// empty items. It returns nil for an empty list.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
