package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// Error carries per-field messages, keyed by the JSON path of the field
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Struct validates v and converts validator errors into an *Error
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &Error{Fields: make(map[string][]string, len(ve))}
	for _, fe := range ve {
		key := fieldKey(fe.Namespace())
		out.Fields[key] = append(out.Fields[key], messageForTag(fe.Tag(), fe.Param()))
	}
	return out
}

// fieldKey strips the root struct name: "CreateOrderRequest.customer.email"
// becomes "customer.email".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required", "required_if":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Must be at least " + param + " characters."
	case "max":
		return "Must be at most " + param + " characters."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "eqfield":
		return "Does not match."
	default:
		return "Invalid value."
	}
}
