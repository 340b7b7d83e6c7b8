package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/dkoosis/zephyr-bridge/pkg/casekey"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their yaml names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg and returns every problem found as a *multierror.Error.
func Validate(cfg *Config) error {
	var result *multierror.Error

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "validating config")
		}
		for _, fe := range verrs {
			result = multierror.Append(result, fieldError(fe))
		}
	}

	if cfg.KeyPattern != "" {
		if _, err := casekey.NewMatcher(cfg.KeyPattern); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "key_pattern"))
		}
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = formatErrors
	return result
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "url":
		return fmt.Errorf("%s must be a URL, got %q", field, fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Errorf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %q", field, fe.Tag())
	}
}

func formatErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("invalid configuration (%d problems):\n%s", len(errs), strings.Join(lines, "\n"))
}
