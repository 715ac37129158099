// Package rgbd is the root of the RGB node boundary layer. It holds the
// globally available logger and the list of prometheus collectors that the
// packages register.
package rgbd

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Version is the version of the node announced to the bus clients.
const Version = "0.8.0"

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LOG_LEVEL"

const defaultLevel = zerolog.InfoLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info level logs and above, which can be changed with the LOG_LEVEL
// environment variable.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(levelFromEnv(os.Getenv(EnvLogLevel)))

// PromCollectors exposes the prometheus collectors created by the packages
// so that a metrics endpoint can register them.
var PromCollectors []prometheus.Collector

// ParseLevel returns the zerolog level of the textual representation, or the
// default level if it is unknown.
func ParseLevel(lvl string) zerolog.Level {
	return levelFromEnv(lvl)
}

func levelFromEnv(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "disabled":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}
