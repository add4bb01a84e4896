package config

import (
	"fmt"
	"net"
	"os"
	"os/exec"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/adbdeck/internal/dispatch"
)

// ValidateDeep performs comprehensive validation of the configuration
// including executable lookup, directory access and the syntax of user
// command lines. The configPath argument specifies the config file location
// to validate (empty string skips the config file check). This calls
// Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateMetricsAddr(),
		c.validateUserCommands(),
	)
}

// validateFileAccess checks config file, screenshot directory and both tool executables.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("adb_path", c.ADBPath, executableExists),
		criterio.Run("fastboot_path", c.FastbootPath, executableExists),
		criterio.Run("screenshot_dir", c.ScreenshotDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// executableExists validates that the path resolves to an executable.
func executableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func (c *Config) validateMetricsAddr() error {
	if c.MetricsAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
		return criterio.NewFieldErrors("metrics_addr", fmt.Errorf("invalid address %q: %w", c.MetricsAddr, err))
	}
	return nil
}

// validateUserCommands checks that every command line tokenizes.
func (c *Config) validateUserCommands() error {
	var errs criterio.FieldErrorsBuilder
	for i, uc := range c.UserCommands {
		if _, _, err := dispatch.Tokenize(uc.Line); err != nil {
			errs = errs.Append(fmt.Sprintf("commands[%d].line", i), fmt.Errorf("%s: %w", uc.Name, err))
		}
	}
	return errs.ToError()
}
