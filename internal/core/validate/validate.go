// Package validate provides shared input validation functions.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// ErrInvalidPartition is returned for partition names that are not plain
// ASCII alphanumerics.
var ErrInvalidPartition = errors.New("partition name must be alphanumeric")

// ErrEmptyInput is returned when a required free-form field is blank.
var ErrEmptyInput = errors.New("input is required")

// Partition validates a partition name before it is handed to fastboot.
// Only ASCII letters and digits are accepted so the name can never be read
// as a flag or carry shell metacharacters.
func Partition(name string) error {
	if name == "" {
		return ErrInvalidPartition
	}
	for _, r := range name {
		if !isASCIIAlnum(r) {
			return fmt.Errorf("%w: %q", ErrInvalidPartition, name)
		}
	}
	return nil
}

// CommandLine validates that a free-form command is non-empty after trimming whitespace.
func CommandLine(line string) error {
	if strings.TrimSpace(line) == "" {
		return fmt.Errorf("command: %w", ErrEmptyInput)
	}
	return nil
}

// Required validates that a prompt answer is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrEmptyInput
	}
	return nil
}

// FlashFields returns criterio field errors for a flash request.
func FlashFields(partition, image string) error {
	return criterio.ValidateStruct(
		criterio.Run("partition", partition, Partition),
		criterio.Run("image", image, Required),
	)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
