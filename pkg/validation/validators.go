package validation

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ContactForm carries the trimmed field values through the validator.
// Field order matches the form; each field reports at most one error.
type ContactForm struct {
	Name    string `validate:"min=2"`
	Email   string `validate:"email,dotted_domain"`
	Subject string `validate:"min=5"`
	Message string `validate:"min=10"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		RegisterValidators(validate)
	})
	return validate
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("dotted_domain", DottedDomain)
}

// DottedDomain requires a non-empty local part and a domain made of at least
// two non-empty labels separated by dots.
func DottedDomain(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	at := strings.LastIndex(val, "@")
	if at <= 0 || at == len(val)-1 {
		return false
	}
	labels := strings.Split(val[at+1:], ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}

// CheckContact trims every field and checks each one independently. It
// returns the trimmed form and the violations keyed by form field name, or
// nil when all rules hold. Whitespace-only input never satisfies a length rule.
func CheckContact(form ContactForm) (ContactForm, map[string]string) {
	form = ContactForm{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Subject: strings.TrimSpace(form.Subject),
		Message: strings.TrimSpace(form.Message),
	}

	if err := instance().Struct(form); err != nil {
		return form, FormatFieldErrors(err)
	}
	return form, nil
}
