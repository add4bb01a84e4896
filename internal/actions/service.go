package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hay-kot/adbdeck/internal/core/logging"
	"github.com/hay-kot/adbdeck/internal/core/validate"
	"github.com/hay-kot/adbdeck/internal/device"
	"github.com/hay-kot/adbdeck/internal/dispatch"
)

var (
	// ErrNoFastbootDevice is returned by Flash when nothing is in fastboot mode.
	ErrNoFastbootDevice = errors.New("no device in fastboot mode detected")
	// ErrFileNotFound is returned when a local input file does not exist.
	ErrFileNotFound = errors.New("file not found")
)

// RemoteScriptPath is where RunScript stages the script on the device.
const RemoteScriptPath = "/sdcard/script.sh"

// StepError reports which step of a multi-step action failed.
type StepError struct {
	Step   string
	Result dispatch.Result
}

func (e *StepError) Error() string {
	if out := e.Result.Combined(); out != "" {
		return fmt.Sprintf("%s failed: %s", e.Step, out)
	}
	return fmt.Sprintf("%s failed with exit status %d", e.Step, e.Result.ExitCode)
}

func (e *StepError) Unwrap() error { return e.Result.Err }

// Service runs the actions that need more than one invocation or that post
// process output.
type Service struct {
	runner        device.Runner
	devices       *device.Service
	screenshotDir string
	now           func() time.Time
	logger        zerolog.Logger
}

// NewService creates an action Service. Screenshots without an explicit
// path are written to screenshotDir.
func NewService(runner device.Runner, devices *device.Service, screenshotDir string) *Service {
	return &Service{
		runner:        runner,
		devices:       devices,
		screenshotDir: screenshotDir,
		now:           time.Now,
		logger:        logging.Component("actions"),
	}
}

// Install builds `adb install <apk>`.
func (s *Service) Install(serial, apk string) (dispatch.Request, error) {
	if err := requireFile(apk); err != nil {
		return dispatch.Request{}, err
	}
	return dispatch.NewRequest(dispatch.ADB, "Install APK", dispatch.Target(serial, "install", apk)...)
}

// Push builds `adb push <local> <remote>`.
func (s *Service) Push(serial, local, remote string) (dispatch.Request, error) {
	if err := requireFile(local); err != nil {
		return dispatch.Request{}, err
	}
	if err := validate.Required(remote); err != nil {
		return dispatch.Request{}, fmt.Errorf("destination: %w", err)
	}
	return dispatch.NewRequest(dispatch.ADB, "Push File", dispatch.Target(serial, "push", local, remote)...)
}

// Pull builds `adb pull <remote> <local>`.
func (s *Service) Pull(serial, remote, local string) (dispatch.Request, error) {
	if err := validate.Required(remote); err != nil {
		return dispatch.Request{}, fmt.Errorf("device path: %w", err)
	}
	if err := validate.Required(local); err != nil {
		return dispatch.Request{}, fmt.Errorf("local path: %w", err)
	}
	return dispatch.NewRequest(dispatch.ADB, "Pull File", dispatch.Target(serial, "pull", remote, local)...)
}

// Flash writes image to partition with fastboot. The partition name and the
// image are checked before anything is run, and at least one device must be
// in fastboot mode.
func (s *Service) Flash(ctx context.Context, partition, image string) (dispatch.Result, error) {
	if err := validate.FlashFields(partition, image); err != nil {
		return dispatch.Result{}, err
	}
	if err := requireFile(image); err != nil {
		return dispatch.Result{}, err
	}

	serials, err := s.devices.ListFastbootDevices(ctx)
	if err != nil {
		return dispatch.Result{}, err
	}
	if len(serials) == 0 {
		return dispatch.Result{}, ErrNoFastbootDevice
	}

	req, err := dispatch.NewRequest(dispatch.Fastboot, "Fastboot flash "+partition, "flash", partition, image)
	if err != nil {
		return dispatch.Result{}, err
	}

	s.logger.Info().Str("partition", partition).Str("image", image).Strs("fastboot_devices", serials).Msg("flashing")
	return s.runner.Do(ctx, req), nil
}

// Shot is a captured screenshot.
type Shot struct {
	Path   string
	Size   int
	Result dispatch.Result
}

// DefaultScreenshotPath names a screenshot by capture time.
func (s *Service) DefaultScreenshotPath() string {
	name := "screenshot-" + s.now().Format("20060102-150405") + ".png"
	return filepath.Join(s.screenshotDir, name)
}

// Screenshot captures the screen with `exec-out screencap -p` and writes the
// raw output bytes to path. An empty path uses DefaultScreenshotPath.
func (s *Service) Screenshot(ctx context.Context, serial, path string) (Shot, error) {
	if path == "" {
		path = s.DefaultScreenshotPath()
	}

	res := s.runner.Do(ctx, dispatch.MustRequest(dispatch.ADB, "Screenshot", dispatch.Target(serial, "exec-out", "screencap", "-p")...))
	shot := Shot{Path: path, Result: res}
	if !res.Succeeded() {
		return shot, &StepError{Step: "screencap", Result: res}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return shot, fmt.Errorf("screenshot: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(res.Stdout), 0o644); err != nil {
		return shot, fmt.Errorf("screenshot: %w", err)
	}

	shot.Size = len(res.Stdout)
	return shot, nil
}

// ParsePackages extracts package names from `pm list packages` output.
func ParsePackages(out string) []string {
	var pkgs []string
	for _, line := range strings.Split(out, "\n") {
		name, ok := strings.CutPrefix(strings.TrimSpace(line), "package:")
		if !ok || name == "" {
			continue
		}
		pkgs = append(pkgs, name)
	}
	slices.Sort(pkgs)
	return pkgs
}

// Packages lists third-party packages, sorted.
func (s *Service) Packages(ctx context.Context, serial string) ([]string, dispatch.Result, error) {
	res := s.runner.Do(ctx, dispatch.MustRequest(dispatch.ADB, "List Apps", dispatch.Target(serial, "shell", "pm", "list", "packages", "-3")...))
	if !res.Succeeded() {
		return nil, res, &StepError{Step: "list packages", Result: res}
	}
	return ParsePackages(res.Stdout), res, nil
}

// Diagnostics collects the battery and thermal service dumps under headers.
func (s *Service) Diagnostics(ctx context.Context, serial string) (string, error) {
	var battery, thermal string

	g, gctx := errgroup.WithContext(ctx)
	dump := func(label, service string, dst *string) {
		g.Go(func() error {
			res := s.runner.Do(gctx, dispatch.MustRequest(dispatch.ADB, label, dispatch.Target(serial, "shell", "dumpsys", service)...))
			if !res.Succeeded() {
				return &StepError{Step: label, Result: res}
			}
			*dst = res.Stdout
			return nil
		})
	}
	dump("Battery Info", "battery", &battery)
	dump("Thermal Info", "thermalservice", &thermal)

	if err := g.Wait(); err != nil {
		return "", err
	}

	return "=== Battery Info ===\n" + battery + "\n=== Thermal Info ===\n" + thermal, nil
}

// RootStatus is the outcome of a root check.
type RootStatus struct {
	Rooted  bool
	Version string
	Result  dispatch.Result
}

// String renders the status for the log.
func (r RootStatus) String() string {
	if r.Rooted {
		return "Magisk/SU version: " + r.Version
	}
	return "Device is not rooted or Magisk is not installed."
}

// RootCheck runs `su -v` on the device. Any failure is reported as not rooted.
func (s *Service) RootCheck(ctx context.Context, serial string) RootStatus {
	res := s.runner.Do(ctx, dispatch.MustRequest(dispatch.ADB, "Root Check", dispatch.Target(serial, "shell", "su", "-v")...))
	version := strings.TrimSpace(res.Stdout)
	return RootStatus{
		Rooted:  res.Succeeded() && version != "",
		Version: version,
		Result:  res,
	}
}

// RunScript pushes a local shell script to the device, marks it executable
// and runs it. Steps run in order and stop at the first failure. The results
// of every step that ran are returned.
func (s *Service) RunScript(ctx context.Context, serial, path string) ([]dispatch.Result, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		args []string
	}{
		{"push script", []string{"push", path, RemoteScriptPath}},
		{"chmod script", []string{"shell", "chmod", "+x", RemoteScriptPath}},
		{"run script", []string{"shell", "sh", RemoteScriptPath}},
	}

	results := make([]dispatch.Result, 0, len(steps))
	for _, step := range steps {
		res := s.runner.Do(ctx, dispatch.MustRequest(dispatch.ADB, "Run Script", dispatch.Target(serial, step.args...)...))
		results = append(results, res)
		if !res.Succeeded() {
			s.logger.Warn().Str("step", step.name).Int("exit_code", res.ExitCode).Msg("script step failed")
			return results, &StepError{Step: step.name, Result: res}
		}
	}
	return results, nil
}

func requireFile(path string) error {
	if err := validate.Required(path); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
