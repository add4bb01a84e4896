// Package logging holds zerolog helpers shared by adbdeck components.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Command derives a logger for a single external command. The tool and
// label fields let concurrent dispatches be told apart in the log file.
func Command(parent zerolog.Logger, tool, label string) zerolog.Logger {
	return parent.With().
		Str("tool", tool).
		Str("label", label).
		Logger()
}
