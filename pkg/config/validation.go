package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Struct tags cover field-level constraints; backend sections are free-form
// maps and are checked by validateCustomRules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	switch cfg.Backend.Type {
	case "badger":
		inMemory, _ := cfg.Backend.Badger["in_memory"].(bool)
		path, _ := cfg.Backend.Badger["db_path"].(string)
		if !inMemory && path == "" {
			return fmt.Errorf("backend.badger: db_path is required unless in_memory is set")
		}
	case "redis":
		addr, _ := cfg.Backend.Redis["addr"].(string)
		if addr == "" {
			return fmt.Errorf("backend.redis: addr is required")
		}
	}

	if cfg.Backend.RateLimit.RequestsPerSecond == 0 && cfg.Backend.RateLimit.Burst > 0 {
		return fmt.Errorf("backend.rate_limit: burst set without requests_per_second")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}

	return err
}
