package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their koanf key
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg against its field constraints. The first violation is
// returned as a *ConfigError naming the offending key.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ConfigError{Category: "missing", Message: "configuration is nil"}
	}

	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}
	return toConfigError(validationErrors[0])
}

// toConfigError maps a validator failure onto a ConfigError keyed by the dotted config path.
func toConfigError(fe validator.FieldError) *ConfigError {
	field := fieldPath(fe.Namespace())

	switch fe.Tag() {
	case "required", "required_if":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "min", "gte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value()), nil)
	case "max":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value()), nil)
	case "gt":
		return NewInvalidFieldError(field, fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value()), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
	}
}

// fieldPath drops the root struct name: "Config.pool.size" becomes "pool.size".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
