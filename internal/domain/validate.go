package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct-tag validation and converts the first failure
// into a ValidationError.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return invalid(toSnake(fe.Field()), describe(fe))
	}
	return invalid("request", err.Error())
}

// ValidateEmail checks that s is a usable identity.
func ValidateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return invalid("user_email", "required")
	}
	if err := validate.Var(strings.TrimSpace(s), "email"); err != nil {
		return invalid("user_email", "must be a valid email address")
	}
	return nil
}

// NormalizeEmail is the canonical form of an identity used as a store key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// toSnake turns a Go field name into its wire name ("UserEmail" -> "user_email").
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
