package device

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hay-kot/adbdeck/internal/core/logging"
	"github.com/hay-kot/adbdeck/internal/dispatch"
)

// Properties read by Describe.
const (
	PropModel   = "ro.product.model"
	PropBuild   = "ro.build.display.id"
	PropAndroid = "ro.build.version.release"
)

// Runner runs a request to completion. *dispatch.Dispatcher satisfies it.
type Runner interface {
	Do(ctx context.Context, req dispatch.Request) dispatch.Result
}

// Service queries attached devices through a Runner.
type Service struct {
	runner Runner
	logger zerolog.Logger
}

// NewService creates a device Service.
func NewService(runner Runner) *Service {
	return &Service{
		runner: runner,
		logger: logging.Component("device"),
	}
}

// ListDevices returns the serials of devices in the "device" state.
// Unauthorized and offline devices are left out.
func (s *Service) ListDevices(ctx context.Context) ([]string, error) {
	res := s.runner.Do(ctx, dispatch.MustRequest(dispatch.ADB, "Devices", "devices"))
	if !res.Succeeded() {
		return nil, fmt.Errorf("list devices: %s", failure(res))
	}

	entries := ParseDevices(res.Stdout)
	for _, e := range entries {
		if !e.Ready() {
			s.logger.Debug().Str("serial", e.Serial).Str("state", e.State).Msg("skipping device")
		}
	}
	return ReadySerials(entries), nil
}

// ListFastbootDevices returns the serials of devices in fastboot mode.
func (s *Service) ListFastbootDevices(ctx context.Context) ([]string, error) {
	res := s.runner.Do(ctx, dispatch.MustRequest(dispatch.Fastboot, "Fastboot Devices", "devices"))
	if !res.Succeeded() {
		return nil, fmt.Errorf("list fastboot devices: %s", failure(res))
	}
	return ReadySerials(ParseFastbootDevices(res.Stdout)), nil
}

// Describe reads the model, build and Android version of serial. The three
// lookups run concurrently; if any of them fails no record is returned.
func (s *Service) Describe(ctx context.Context, serial string) (Record, bool) {
	var model, build, android string

	g, gctx := errgroup.WithContext(ctx)
	lookup := func(prop string, dst *string) {
		g.Go(func() error {
			v, err := s.getprop(gctx, serial, prop)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		})
	}
	lookup(PropModel, &model)
	lookup(PropBuild, &build)
	lookup(PropAndroid, &android)

	if err := g.Wait(); err != nil {
		s.logger.Warn().Ctx(logging.WithSerial(ctx, serial)).Err(err).Msg("device info unavailable")
		return Record{}, false
	}

	return Record{Serial: serial, Model: model, Build: build, Android: android}, true
}

func (s *Service) getprop(ctx context.Context, serial, prop string) (string, error) {
	req := dispatch.MustRequest(dispatch.ADB, "Getprop", dispatch.Target(serial, "shell", "getprop", prop)...)
	res := s.runner.Do(ctx, req)
	if !res.Succeeded() {
		return "", fmt.Errorf("getprop %s: %s", prop, failure(res))
	}
	return strings.TrimSpace(res.Stdout), nil
}

// StatusKind is the outcome of a refresh.
type StatusKind int

const (
	// StatusWaiting is the state before the first refresh.
	StatusWaiting StatusKind = iota
	// StatusNoDevice means no ready device is attached.
	StatusNoDevice
	// StatusChoose means several devices are ready and none was preferred.
	StatusChoose
	// StatusCanceled means the user dismissed the device choice.
	StatusCanceled
	// StatusUnavailable means a device was selected but could not be described.
	StatusUnavailable
	// StatusConnected means Record is valid.
	StatusConnected
)

// Status is the device line shown to the user. It is replaced wholesale on
// every refresh.
type Status struct {
	Kind       StatusKind
	Serial     string
	Record     Record
	Candidates []string
	Err        error
}

// String renders the status line.
func (st Status) String() string {
	switch st.Kind {
	case StatusNoDevice:
		return "No device detected. Plug in and enable ADB."
	case StatusChoose:
		return fmt.Sprintf("Multiple devices detected: %s", strings.Join(st.Candidates, ", "))
	case StatusCanceled:
		return "Device selection cancelled."
	case StatusUnavailable:
		if st.Err != nil {
			return fmt.Sprintf("Device info unavailable: %v", st.Err)
		}
		return fmt.Sprintf("Device info unavailable for %s", st.Serial)
	case StatusConnected:
		return st.Record.Summary()
	default:
		return "Waiting for device..."
	}
}

// Refresh lists ready devices, picks one and describes it. A single ready
// device is picked implicitly. With several, preferred is used when it is
// among them; otherwise a StatusChoose carrying the candidates is returned
// and the caller is expected to ask the user and refresh again.
func (s *Service) Refresh(ctx context.Context, preferred string) Status {
	serials, err := s.ListDevices(ctx)
	if err != nil {
		return Status{Kind: StatusUnavailable, Err: err}
	}

	var serial string
	switch {
	case len(serials) == 0:
		return Status{Kind: StatusNoDevice}
	case len(serials) == 1:
		serial = serials[0]
	case preferred != "" && slices.Contains(serials, preferred):
		serial = preferred
	default:
		return Status{Kind: StatusChoose, Candidates: serials}
	}

	rec, ok := s.Describe(ctx, serial)
	if !ok {
		return Status{Kind: StatusUnavailable, Serial: serial}
	}

	s.logger.Info().Str("serial", serial).Str("model", rec.Model).Str("android", rec.Android).Msg("device connected")
	return Status{Kind: StatusConnected, Serial: serial, Record: rec}
}

func failure(res dispatch.Result) string {
	if out := res.Combined(); out != "" {
		return out
	}
	return fmt.Sprintf("exit status %d", res.ExitCode)
}
