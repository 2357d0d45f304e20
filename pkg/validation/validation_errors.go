package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldKeys maps struct field names to the form field names used in responses
var FieldKeys = map[string]string{
	"Name":    "name",
	"Email":   "email",
	"Subject": "subject",
	"Message": "message",
}

// FieldLabels maps struct field names to user-friendly labels
var FieldLabels = map[string]string{
	"Name":    "Name",
	"Email":   "Email",
	"Subject": "Subject",
	"Message": "Message",
}

// FormatFieldErrors converts validator.ValidationErrors to a field -> message
// map. The first error reported for a field wins.
func FormatFieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation error (e.g. invalid struct), attribute nothing to fields
		return map[string]string{}
	}

	fieldErrors := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		key := fieldKey(e.Field())
		if _, seen := fieldErrors[key]; seen {
			continue
		}
		fieldErrors[key] = formatSingleError(e)
	}

	return fieldErrors
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())

	switch e.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, e.Param())

	case "email", "dotted_domain":
		return "Invalid email address."

	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

func fieldKey(structField string) string {
	if key, ok := FieldKeys[structField]; ok {
		return key
	}
	return structField
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
