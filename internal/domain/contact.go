package domain

import (
	"context"
	"errors"
	"fmt"

	"portfolio-contact-backend/pkg/validation"
)

// Contact form field names, as used in JSON bodies and FieldErrors keys.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

// User-facing outcome messages. Raw delivery diagnostics never reach the user.
const (
	SuccessMessage    = "Your message has been sent successfully!"
	UserFacingFailure = "Failed to send message. Please try again later."
)

var (
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrUnknownField       = errors.New("unknown contact form field")
	ErrSessionNotFound    = errors.New("contact session not found")
)

// FormInput is the raw contact form as typed by the visitor
type FormInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// IsEmpty reports whether every field is blank.
func (f FormInput) IsEmpty() bool {
	return f == FormInput{}
}

// Set assigns a single field by its form name.
func (f *FormInput) Set(field, value string) error {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldSubject:
		f.Subject = value
	case FieldMessage:
		f.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Validate checks every field independently and returns either a validated
// message or the per-field violations. Values are trimmed first.
func (f FormInput) Validate() (ValidatedMessage, FieldErrors) {
	form, errs := validation.CheckContact(validation.ContactForm{
		Name:    f.Name,
		Email:   f.Email,
		Subject: f.Subject,
		Message: f.Message,
	})
	if len(errs) > 0 {
		return ValidatedMessage{}, FieldErrors(errs)
	}
	return ValidatedMessage{
		name:    form.Name,
		email:   form.Email,
		subject: form.Subject,
		message: form.Message,
	}, nil
}

// ValidatedMessage is a contact message whose fields all passed validation.
// FormInput.Validate is the only producer; values are never mutated.
type ValidatedMessage struct {
	name    string
	email   string
	subject string
	message string
}

func (m ValidatedMessage) Name() string    { return m.name }
func (m ValidatedMessage) Email() string   { return m.email }
func (m ValidatedMessage) Subject() string { return m.subject }
func (m ValidatedMessage) Message() string { return m.message }

// FieldErrors maps a form field name to its single violation message.
type FieldErrors map[string]string

// SubmissionState is the visible state of a contact form.
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateSubmitting SubmissionState = "submitting"
	StateSucceeded  SubmissionState = "succeeded"
	StateFailed     SubmissionState = "failed"
)

// IsTerminal reports whether the state is Succeeded or Failed.
func (s SubmissionState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Snapshot is a read-only copy of a controller's state handed to observers.
type Snapshot struct {
	State          SubmissionState `json:"state"`
	Input          FormInput       `json:"input"`
	FieldErrors    FieldErrors     `json:"field_errors,omitempty"`
	SuccessMessage string          `json:"success_message,omitempty"`
	FailureMessage string          `json:"failure_message,omitempty"`
}

// DeliveryErrorKind classifies delivery failures for operators.
type DeliveryErrorKind string

const (
	DeliveryTransport     DeliveryErrorKind = "transport"
	DeliveryRejected      DeliveryErrorKind = "rejected"
	DeliveryTimeout       DeliveryErrorKind = "timeout"
	DeliveryConfiguration DeliveryErrorKind = "configuration"
)

// DeliveryError is the Failure outcome of a DeliveryClient. Reason is a
// diagnostic for logs and must not be shown to visitors.
type DeliveryError struct {
	Kind   DeliveryErrorKind
	Reason string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("delivery %s: %s", e.Kind, e.Reason)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is a DeliveryError caused by
// missing relay credentials.
func IsConfigurationError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == DeliveryConfiguration
}

// DeliveryClient relays a validated message to the site owner.
// A nil error means Success; otherwise the error is a *DeliveryError.
type DeliveryClient interface {
	Send(ctx context.Context, msg ValidatedMessage) error
}

// ContactUsecase is the stateless one-shot submission used by the plain
// JSON endpoint. A non-nil error is either ErrSubmissionInFlight or the raw
// delivery failure behind a Failed snapshot.
type ContactUsecase interface {
	SendContactMessage(ctx context.Context, input FormInput) (Snapshot, error)
}
