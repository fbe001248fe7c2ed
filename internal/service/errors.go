package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/subnets-api/internal/store"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrNotFound           = errors.New("resource not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email address is already registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	// ErrConflict is returned when concurrent writers kept invalidating an update.
	ErrConflict = errors.New("resource was modified concurrently, please retry")
)

// ValidationError is a client input error carrying a human readable message.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(message string, err error) error {
	return &ValidationError{Message: message, Err: err}
}

// NotFoundError names the missing resource, e.g. "Post not found".
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// validate runs struct validation. Missing required fields produce requiredMessage,
// any other rule violation names the offending field.
func validate(v *validator.Validate, payload interface{}, requiredMessage string) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return newValidationError(requiredMessage, err)
	}

	for _, fe := range fieldErrors {
		if fe.Tag() == "required" {
			return newValidationError(requiredMessage, err)
		}
	}

	fe := fieldErrors[0]
	return newValidationError(describeField(fe), err)
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}

	switch fe.Tag() {
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "excludesall":
		return fmt.Sprintf("%s contains invalid characters", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// translateStoreError maps persistence errors onto service errors for resource.
func translateStoreError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(resource)
	case errors.Is(err, store.ErrVersionConflict):
		return fmt.Errorf("%s: %w", strings.ToLower(resource), ErrConflict)
	default:
		return err
	}
}
