package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/visitexport/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// MaxRenderDepth is the largest accepted render.max_depth.
const MaxRenderDepth = 1024

var validFilenameStyles = map[string]bool{"dated": true, "visits": true, "": true}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateSource()...)

	if c.Source.Driver == DriverMySQL {
		errors = append(errors, c.validateSchema()...)
	}

	errors = append(errors, c.validateOutput()...)

	if c.Render.MaxDepth < 1 || c.Render.MaxDepth > MaxRenderDepth {
		errors = append(errors, ValidationError{
			Field:   "render.max_depth",
			Message: fmt.Sprintf("max_depth must be between 1 and %d", MaxRenderDepth),
		})
	}

	for name, exp := range c.Exports {
		errors = append(errors, c.validateExport(name, &exp)...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errors ValidationErrors
	src := &c.Source

	switch src.Driver {
	case DriverFile:
		if src.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "source.path",
				Message: "path is required for the file driver",
			})
		}
		return errors
	case DriverMySQL:
	default:
		return append(errors, ValidationError{
			Field:   "source.driver",
			Message: "driver must be 'mysql' or 'file'",
		})
	}

	if src.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "source.host",
			Message: "host is required",
		})
	}
	if src.Port <= 0 || src.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "source.port",
			Message: "port must be between 1 and 65535",
		})
	}
	if src.User == "" {
		errors = append(errors, ValidationError{
			Field:   "source.user",
			Message: "user is required",
		})
	}
	if src.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "source.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[src.TLS] {
		errors = append(errors, ValidationError{
			Field:   "source.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}
	if src.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_connections",
			Message: "max_connections cannot be negative",
		})
	}
	if src.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateSchema() ValidationErrors {
	var errors ValidationErrors

	identifiers := []struct {
		field string
		value string
	}{
		{"schema.visits_table", c.Schema.VisitsTable},
		{"schema.users_table", c.Schema.UsersTable},
		{"schema.shops_table", c.Schema.ShopsTable},
		{"schema.timestamp_column", c.Schema.TimestampColumn},
		{"schema.answers_column", c.Schema.AnswersColumn},
	}
	for _, id := range identifiers {
		if !sqlutil.IsValidIdentifier(id.value) {
			errors = append(errors, ValidationError{
				Field:   id.field,
				Message: fmt.Sprintf("%q is not a valid identifier", id.value),
			})
		}
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	if c.Output.DateFormat == "" {
		errors = append(errors, ValidationError{
			Field:   "output.date_format",
			Message: "date_format is required",
		})
	}
	if c.Output.TimeFormat == "" {
		errors = append(errors, ValidationError{
			Field:   "output.time_format",
			Message: "time_format is required",
		})
	}
	if !validFilenameStyles[c.Output.FilenameStyle] {
		errors = append(errors, ValidationError{
			Field:   "output.filename_style",
			Message: "filename_style must be 'dated' or 'visits'",
		})
	}

	return errors
}

func (c *Config) validateExport(name string, exp *ExportConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("exports.%s", name)

	if strings.TrimSpace(exp.Entity) == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".entity",
			Message: "entity is required",
		})
	}
	if exp.Where != "" && c.Source.Driver == DriverFile {
		errors = append(errors, ValidationError{
			Field:   prefix + ".where",
			Message: "where filters need the mysql driver",
		})
	}
	if !validFilenameStyles[exp.FilenameStyle] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".filename_style",
			Message: "filename_style must be 'dated' or 'visits'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
