package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ferroxide/ferroxide/internal/clock"
	"github.com/ferroxide/ferroxide/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidColorModes returns the list of valid console colour modes
func ValidColorModes() []string {
	return []string{string(logging.ColorAuto), string(logging.ColorAlways), string(logging.ColorNever)}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	// Validate Time config
	errors = append(errors, c.validateTime()...)

	// Validate Server config
	errors = append(errors, c.validateServer()...)

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if _, err := logging.ParseFilter(c.Logging.Filter); err != nil {
		errors = append(errors, ValidationError{
			Field:   "logging.filter",
			Value:   c.Logging.Filter,
			Message: err.Error(),
		})
	}

	if c.Logging.Color != "" && !slices.Contains(ValidColorModes(), string(c.Logging.Color)) {
		errors = append(errors, ValidationError{
			Field:   "logging.color",
			Value:   c.Logging.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateTime() []ValidationError {
	if _, err := clock.New(c.Time.Zone); err != nil {
		return []ValidationError{{
			Field:   "time.zone",
			Value:   c.Time.Zone,
			Message: "must be an IANA timezone name (e.g. Europe/Warsaw)",
		}}
	}
	return nil
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if _, err := c.Server.PortNumber(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Value:   c.Server.Port,
			Message: "must be an integer between 1 and 65535",
		})
	}

	if strings.TrimSpace(c.Server.Host) == "" {
		errors = append(errors, ValidationError{
			Field:   "server.host",
			Value:   c.Server.Host,
			Message: "must not be empty",
		})
	}

	if c.Server.ShutdownTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.shutdown_timeout",
			Value:   c.Server.ShutdownTimeout,
			Message: "must be positive",
		})
	}

	return errors
}
