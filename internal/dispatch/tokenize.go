package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ErrShellOperator is returned when free-form input contains an unquoted
// shell control operator. Commands are never run through a shell, so
// `;`, `&`, `|`, `<` and `>` would silently truncate the argument list.
var ErrShellOperator = errors.New("unquoted shell operator")

// Tokenize splits a free-form command line into a tool and argument vector.
//
// Words follow POSIX shell quoting: single quotes are literal, double quotes
// group words and honour backslash escapes, a backslash outside quotes
// escapes the next character. Variables and command substitution are not
// expanded. A leading "fastboot" word selects Fastboot; a leading "adb"
// word is dropped; anything else is passed to adb as-is.
func Tokenize(line string) (Tool, []string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ADB, nil, ErrEmptyCommand
	}

	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false

	words, err := p.Parse(line)
	if err != nil {
		return ADB, nil, fmt.Errorf("parse %q: %w", line, err)
	}
	if p.Position >= 0 {
		return ADB, nil, fmt.Errorf("parse %q at offset %d: %w", line, p.Position, ErrShellOperator)
	}

	tool := ADB
	if len(words) > 0 {
		switch words[0] {
		case "fastboot":
			tool = Fastboot
			words = words[1:]
		case "adb":
			words = words[1:]
		}
	}

	if len(words) == 0 {
		return tool, nil, ErrEmptyCommand
	}
	return tool, words, nil
}
