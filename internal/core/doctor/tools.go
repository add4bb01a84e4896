package doctor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/hay-kot/adbdeck/internal/dispatch"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ErrToolMissing is returned by RequireTools when adb or fastboot can not be resolved.
var ErrToolMissing = errors.New("required tool not found")

// ToolsCheck verifies that adb and fastboot resolve to executables.
type ToolsCheck struct {
	adbPath      string
	fastbootPath string
}

// NewToolsCheck creates a new tools check for the configured executables.
func NewToolsCheck(adbPath, fastbootPath string) *ToolsCheck {
	return &ToolsCheck{adbPath: adbPath, fastbootPath: fastbootPath}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	// Both tools are required; flashing is unusable without fastboot.
	for _, tool := range []struct{ label, path string }{
		{"adb", c.adbPath},
		{"fastboot", c.fastbootPath},
	} {
		if path, err := lookPathFunc(tool.path); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  tool.label,
				Status: StatusFail,
				Detail: fmt.Sprintf("%s not found on PATH (install Android platform-tools)", tool.path),
			})
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  tool.label,
				Status: StatusPass,
				Detail: path,
			})
		}
	}

	return result
}

// RequireTools resolves both executables to absolute paths. It fails with
// ErrToolMissing naming the first tool that can not be found.
func RequireTools(adbPath, fastbootPath string) (dispatch.Tools, error) {
	adb, err := lookPathFunc(adbPath)
	if err != nil {
		return dispatch.Tools{}, fmt.Errorf("%w: adb (%s): %w", ErrToolMissing, adbPath, err)
	}

	fastboot, err := lookPathFunc(fastbootPath)
	if err != nil {
		return dispatch.Tools{}, fmt.Errorf("%w: fastboot (%s): %w", ErrToolMissing, fastbootPath, err)
	}

	return dispatch.Tools{ADB: adb, Fastboot: fastboot}, nil
}
