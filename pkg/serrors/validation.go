package serrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return strings.Join(parts, "; ")
}

// ProcessValidatorErrors converts validator output into ValidationErrors.
func ProcessValidatorErrors(err error) ValidationErrors {
	out := ValidationErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["_"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gtfield":
		return "must be after " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// InvalidInput wraps ValidationErrors in a VALIDATION service error.
func InvalidInput(errs ValidationErrors) *ServiceError {
	return Validation("invalid input: "+errs.Error(), errs)
}
