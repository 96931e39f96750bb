package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-r string   Redis address for the session store
//	-s string   session cookie secret
//	-k string   CSRF secret
//	-t int      session ttl, minutes
//	-e string   environment ("development" or "production")
//	-l string   log level
//
// Only these flags are looked at; os.Args is filtered first so that other
// loaders (-c, -env-file) do not collide. Defaults are the current values of
// config, so a flag that is not given changes nothing. A parse error panics.
func parseFlags(config *Config) {
	// keep only the flags owned here
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-s", "-k", "-t", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	fs.StringVar(&config.CSRFSecret, "k", config.CSRFSecret, "csrf secret")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session ttl (in minutes)")

	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// the ttl is given in minutes, apply it only when set explicitly
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		}
	})
}
