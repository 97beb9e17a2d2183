// AngelaMos | 2026
// validate.go

package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const minResetInterval = time.Minute

var fieldRules = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
	})
	return v
}

// validate checks per-field rules from struct tags, then the rules that
// span sections.
func validate(c *Config) error {
	if err := fieldRules.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return describe(verrs[0])
		}
		return err
	}

	if c.Database.Driver == DriverMemory && c.Jobs.Enabled {
		return errors.New("background jobs require the postgres driver")
	}

	if c.Jobs.Enabled && c.Jobs.ResetInterval < minResetInterval {
		return fmt.Errorf("jobs.reset_interval must be at least %s", minResetInterval)
	}

	if c.CORS.AllowCredentials && slices.Contains(c.CORS.AllowedOrigins, "*") {
		return errors.New("cors wildcard origin cannot be combined with credentials")
	}

	if c.IsProduction() {
		if !c.JWT.Enabled {
			return errors.New("jwt must be enabled in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return errors.New("otel.insecure must be false in production")
		}
	}

	return nil
}

func describe(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "required_if":
		return fmt.Errorf("%s is required when %s", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be positive", field)
	default:
		return fmt.Errorf("%s failed %s", field, fe.Tag())
	}
}
