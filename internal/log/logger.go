package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production writes JSON lines; other environments
// get the console writer. An empty or unknown level falls back to debug outside
// production and info in it.
func New(environment, level, service string) zerolog.Logger {
	production := environment == "production"

	var out io.Writer = os.Stdout
	if !production {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(parseLevel(level, production))
	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(out).With().
		Timestamp().
		Str("env", environment).
		Str("service", service).
		Logger()
}

func parseLevel(level string, production bool) zerolog.Level {
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		return parsed
	}
	if production {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}
