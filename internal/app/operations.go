package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/hay-kot/adbdeck/internal/core/notify"
	"github.com/hay-kot/adbdeck/internal/core/styles"
)

// Flash validates and flashes image to partition, recording the outcome.
func (a *App) Flash(ctx context.Context, partition, image string) error {
	res, err := a.Actions.Flash(ctx, partition, image)
	if err != nil {
		a.Fail("Flash", fmt.Errorf("flashing %s: %w", partition, err))
		return err
	}

	a.Log.Append(Entry(res))
	if !res.Succeeded() {
		a.Bus.Notify(notify.LevelError, "Error", fmt.Sprintf("Flashing %s failed.", partition))
		return nil
	}
	a.Bus.Notify(notify.LevelInfo, "Done", fmt.Sprintf("Flashed to %s successfully.", partition))
	return nil
}

// Screenshot captures the screen to path, or to a timestamped file in the
// screenshot directory when path is empty. It returns the written path.
func (a *App) Screenshot(ctx context.Context, path string) (string, error) {
	shot, err := a.Actions.Screenshot(ctx, a.Serial(), path)
	if err != nil {
		a.Log.Appendf("%s Screenshot failed: %v", styles.IconFail, err)
		a.Bus.Notify(notify.LevelError, "Screenshot", err.Error())
		return "", err
	}

	a.Log.Appendf("%s Screenshot captured.", styles.IconOK)
	a.Bus.Notify(notify.LevelInfo, "Screenshot Saved",
		fmt.Sprintf("Screenshot saved as %s (%s)", shot.Path, humanize.Bytes(uint64(shot.Size))))
	return shot.Path, nil
}

// Packages lists third-party packages for display.
func (a *App) Packages(ctx context.Context) ([]string, error) {
	pkgs, _, err := a.Actions.Packages(ctx, a.Serial())
	if err != nil {
		a.Fail("List Apps", err)
		return nil, err
	}
	return pkgs, nil
}

// Diagnostics collects battery and thermal dumps for display.
func (a *App) Diagnostics(ctx context.Context) (string, error) {
	out, err := a.Actions.Diagnostics(ctx, a.Serial())
	if err != nil {
		a.Fail("Battery/Temp", err)
		return "", err
	}
	return out, nil
}

// RootCheck reports whether the device is rooted.
func (a *App) RootCheck(ctx context.Context) {
	st := a.Actions.RootCheck(ctx, a.Serial())
	if st.Rooted {
		a.Log.Appendf("%s Magisk Detected:\n%s", styles.IconOK, st.Version)
		a.Bus.Notify(notify.LevelInfo, "Magisk", st.String())
		return
	}
	a.Log.Appendf("%s No root/Magisk detected.", styles.IconFail)
	a.Bus.Notify(notify.LevelWarning, "No Root", st.String())
}

// RunScript pushes and runs a local shell script, logging every step.
func (a *App) RunScript(ctx context.Context, path string) error {
	results, err := a.Actions.RunScript(ctx, a.Serial(), path)
	for _, res := range results {
		a.Log.Append(Entry(res))
	}
	if err != nil {
		a.Fail("Run Script", fmt.Errorf("running script: %w", err))
		return err
	}

	a.Log.Appendf("%s Ran script: %s", styles.IconOK, path)
	a.Bus.Notify(notify.LevelInfo, "Success", "Script completed successfully.")
	return nil
}

// ExportLog writes the session log to path.
func (a *App) ExportLog(path string) error {
	if err := a.Log.Export(path); err != nil {
		a.Fail("Save Logs", err)
		return err
	}

	size := int64(0)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	a.logger.Info().Str("path", path).Int64("bytes", size).Msg("log exported")
	a.Bus.Notify(notify.LevelInfo, "Saved", fmt.Sprintf("Logs saved to:\n%s (%s)", path, humanize.Bytes(uint64(size))))
	return nil
}
