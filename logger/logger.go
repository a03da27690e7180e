// Package logger provides structured logging for wsforge using zerolog.
//
// A global logger is initialized once via Initialize, then read through the
// component-scoped helpers below so every part of the runtime — the session
// loops, the registry, the router's protocol demultiplexer — tags its
// entries consistently without threading a *zerolog.Logger through every
// call.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance. Use the component helpers below for
// anything that should carry a "component" field.
var Log zerolog.Logger

// Initialize configures the global logger. pretty selects human-readable
// console output for development; the default is JSON suitable for a log
// aggregator.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().Str("service", "wsforge").Logger()
}

func init() {
	// Usable before Initialize is called, e.g. from package-level tests.
	Log = log.With().Str("service", "wsforge").Logger()
}

// Connection returns a logger scoped to connection lifecycle events.
func Connection() *zerolog.Logger {
	l := Log.With().Str("component", "connection").Logger()
	return &l
}

// Dispatch returns a logger scoped to per-message dispatch events.
func Dispatch() *zerolog.Logger {
	l := Log.With().Str("component", "dispatch").Logger()
	return &l
}

// Broadcast returns a logger scoped to registry broadcast events.
func Broadcast() *zerolog.Logger {
	l := Log.With().Str("component", "broadcast").Logger()
	return &l
}

// StaticFile returns a logger scoped to the static-file responder.
func StaticFile() *zerolog.Logger {
	l := Log.With().Str("component", "static_file").Logger()
	return &l
}

// Admin returns a logger scoped to the side-channel admin HTTP server.
func Admin() *zerolog.Logger {
	l := Log.With().Str("component", "admin").Logger()
	return &l
}
