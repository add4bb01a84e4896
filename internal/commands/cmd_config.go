package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "adbdeck config validate [options]",
				Description: "Validates the configuration file, tool paths, the metrics address and every user command line.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	issues := collectIssues(cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath))

	if cmd.format == "json" {
		out := struct {
			Valid  bool         `json:"valid"`
			Errors []fieldIssue `json:"errors,omitempty"`
		}{
			Valid:  len(issues) == 0,
			Errors: issues,
		}
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, out); err != nil {
			return err
		}
	} else {
		cmd.outputText(os.Stderr, issues)
	}

	if len(issues) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(w io.Writer, issues []fieldIssue) {
	st := styles.New(cmd.flags.Config.Theme)

	if len(issues) == 0 {
		_, _ = fmt.Fprintf(w, "%s Configuration is valid (%s)\n", styles.IconOK, cmd.flags.ConfigPath)
		return
	}

	for _, issue := range issues {
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", st.LogError.Render(styles.IconFail), issue.Field, issue.Message)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, st.LogError.Render(fmt.Sprintf("%d error(s) found", len(issues))))
}

// collectIssues flattens a validation error into per-field entries.
func collectIssues(err error) []fieldIssue {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []fieldIssue{{Field: "config", Message: err.Error()}}
	}

	out := make([]fieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fieldIssue{Field: fe.Field, Message: fe.Err.Error()})
	}
	return out
}
