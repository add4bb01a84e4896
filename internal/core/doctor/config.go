package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/adbdeck/internal/core/config"
)

// ConfigCheck runs deep validation of the loaded configuration.
type ConfigCheck struct {
	cfg        *config.Config
	configPath string
}

// NewConfigCheck creates a config check. configPath may be empty.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, configPath: configPath}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	err := c.cfg.ValidateDeep(c.configPath)
	if err == nil {
		detail := c.configPath
		if detail == "" {
			detail = "defaults"
		}
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusPass,
			Detail: detail,
		})
		return result
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	for _, fe := range fieldErrs {
		status := StatusFail
		// Missing tools are reported by the tools check.
		if fe.Field == "adb_path" || fe.Field == "fastboot_path" {
			status = StatusWarn
		}
		result.Items = append(result.Items, CheckItem{
			Label:  fe.Field,
			Status: status,
			Detail: fmt.Sprint(fe.Err),
		})
	}

	return result
}
