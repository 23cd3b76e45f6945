package models

import "fmt"

// ValidationError names the first field that failed document validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidEnum(field, value string) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("`%s` is not a valid enum value for path `%s`", value, field),
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
