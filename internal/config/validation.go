package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

func init() {
	// Report config keys ("input.dir") instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError lists invalid config keys with user-friendly messages
type ValidationError struct {
	Errors map[string]string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, e.Errors[k])
	}
	return strings.Join(messages, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	out := make(map[string]string, len(errs))

	for _, err := range errs {
		key := configKey(err.Namespace())

		switch err.Tag() {
		case "required":
			out[key] = fmt.Sprintf("%s is required", key)
		case "oneof":
			out[key] = fmt.Sprintf("invalid %s: %v (must be one of: %s)", key, err.Value(), strings.ReplaceAll(err.Param(), " ", ", "))
		case "startswith":
			out[key] = fmt.Sprintf("invalid %s: %v (must start with %q)", key, err.Value(), err.Param())
		case "excludes":
			out[key] = fmt.Sprintf("invalid %s: %v (must not contain %q)", key, err.Value(), err.Param())
		case "min":
			out[key] = fmt.Sprintf("%s must be at least %s", key, err.Param())
		case "max":
			out[key] = fmt.Sprintf("%s must be at most %s", key, err.Param())
		default:
			out[key] = fmt.Sprintf("%s is invalid", key)
		}
	}

	return &ValidationError{Errors: out}
}

// configKey turns "Config.sampling.tie_break" into "sampling.tie_break"
func configKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
