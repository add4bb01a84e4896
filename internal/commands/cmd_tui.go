package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/adbdeck/internal/app"
	"github.com/hay-kot/adbdeck/internal/core/doctor"
	"github.com/hay-kot/adbdeck/internal/core/metrics"
	"github.com/hay-kot/adbdeck/internal/tui"
	"github.com/hay-kot/adbdeck/pkg/executil"
	"github.com/hay-kot/adbdeck/pkg/profiler"
)

// ErrNotTerminal is returned when the UI is started without a terminal.
var ErrNotTerminal = errors.New("adbdeck needs an interactive terminal")

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("ADBDECK_PROFILER_PORT"),
			Destination: &cmd.flags.ProfilerPort,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config

	// Both tools must resolve before anything touches a device.
	tools, err := doctor.RequireTools(cfg.ADBPath, cfg.FastbootPath)
	if err != nil {
		log.Error().Err(err).Msg("missing platform tools")
		return fmt.Errorf("%w\ninstall Android platform-tools or set adb_path/fastboot_path in %s", err, cmd.flags.ConfigPath)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("%w; run 'adbdeck doctor' to check the setup", ErrNotTerminal)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cmd.flags.ProfilerPort > 0 {
		profServer := profiler.New(cmd.flags.ProfilerPort)
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/pprof/", profServer.Addr())).
			Msg("profiler endpoint available")
	}

	var collectors *metrics.Collectors
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collectors = metrics.New(reg)
		if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
			return fmt.Errorf("start metrics: %w", err)
		}
	}

	a := app.New(cfg, &executil.RealExecutor{}, tools, collectors)
	log.Info().
		Str("adb", tools.ADB).
		Str("fastboot", tools.Fastboot).
		Int("workers", a.Dispatcher.Workers()).
		Msg("starting ui")

	p := tea.NewProgram(tui.New(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
