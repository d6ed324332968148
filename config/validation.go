package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a configuration
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig checks the configuration against its struct rules and the
// requirements of the current environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q rule (value %v)", fe.Tag(), fe.Value()),
			})
		}
	}

	// Production must talk to a password protected postgres
	if GetEnvironment() == Production {
		if cfg.DBDriver != DriverPostgres {
			errs = append(errs, ValidationError{Field: "DBDriver", Message: "postgres is required in production"})
		}
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{Field: "DBPassword", Message: "db_password secret is required"})
		}
	}

	if cfg.RateLimitEnabled && cfg.RateLimitWindow <= 0 {
		errs = append(errs, ValidationError{Field: "RateLimitWindow", Message: "must be positive when rate limiting is enabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
