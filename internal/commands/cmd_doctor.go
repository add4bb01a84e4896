package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/adbdeck/internal/core/doctor"
	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/pkg/iojson"
)

type DoctorCmd struct {
	flags  *Flags
	format string
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Check that adb, fastboot and the configuration are usable",
		UsageText:   "adbdeck doctor [options]",
		Description: "Resolves the platform tools and validates the configuration without starting the UI or talking to a device.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) checks() []doctor.Check {
	cfg := cmd.flags.Config
	return []doctor.Check{
		doctor.NewToolsCheck(cfg.ADBPath, cfg.FastbootPath),
		doctor.NewConfigCheck(cfg, cmd.flags.ConfigPath),
	}
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	report := doctor.Run(ctx, cmd.checks()...)

	if cmd.format == "json" {
		return cmd.outputJSON(c, report)
	}

	return cmd.outputText(os.Stderr, report)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, report doctor.Report) error {
	out := struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Tally    `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: report.Healthy(),
		Summary: report.Tally(),
		Checks:  report.Results,
	}

	if err := iojson.WriteWith(c.Root().Writer, os.Stderr, out); err != nil {
		return err
	}
	if !report.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputText(w io.Writer, report doctor.Report) error {
	st := styles.New(cmd.flags.Config.Theme)
	var (
		success = lipgloss.NewStyle().Foreground(st.Palette.Success)
		warning = lipgloss.NewStyle().Foreground(st.Palette.Warning)
		failure = lipgloss.NewStyle().Foreground(st.Palette.Error)
		bold    = lipgloss.NewStyle().Foreground(st.Palette.Foreground).Bold(true)
	)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, st.Title.Render("adbdeck doctor"))
	_, _ = fmt.Fprintln(w, st.Help.Render(strings.Repeat("─", 40)))
	_, _ = fmt.Fprintln(w)

	for _, result := range report.Results {
		_, _ = fmt.Fprintln(w, bold.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + st.Help.Render(item.Detail)
			}

			var icon string
			switch item.Status {
			case doctor.StatusPass:
				icon = success.Render(styles.IconOK)
			case doctor.StatusWarn:
				icon = warning.Render("●")
			case doctor.StatusFail:
				icon = failure.Render(styles.IconFail)
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	tally := report.Tally()
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		success.Render(fmt.Sprintf("%d passed", tally.Passed)),
		warning.Render(fmt.Sprintf("%d warnings", tally.Warned)),
		failure.Render(fmt.Sprintf("%d failed", tally.Failed)),
	)

	if tally.Failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
