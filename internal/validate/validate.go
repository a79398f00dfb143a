// Package validate checks user input before it is sent to the API.
//
// Rules are expressed as go-playground/validator struct tags. Two custom tags
// are registered on top of the built-in set:
//
//	strongpassword  at least 8 characters with a lower-case letter, an
//	                upper-case letter and a digit
//	egphone         an Egyptian mobile number (01[0125] followed by 8 digits)
//
// Struct returns FieldErrors whose messages are ready to show next to a form
// field. Field names come from the json tag so they match the API payload.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password strongpassword accepts.
const MinPasswordLength = 8

var (
	phonePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	once     sync.Once
	instance *validator.Validate
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// FieldErrors is the set of failures for one value, in field order.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, e := range fe {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// For returns the message for field, or "".
func (fe FieldErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})
		mustRegister(v, "egphone", func(fl validator.FieldLevel) bool {
			return Phone(fl.Field().String())
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Struct validates v against its validate tags. It returns nil or FieldErrors.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "strongpassword":
		return fmt.Sprintf("Password must be at least %d characters with upper-case, lower-case and a number", MinPasswordLength)
	case "egphone":
		return "Please enter a valid Egyptian phone number"
	case "eqfield":
		if fe.Field() == "rePassword" {
			return "Passwords do not match"
		}
		return fmt.Sprintf("%s must match %s", label, humanize(fe.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// humanize turns "rePassword" into "Re password".
func humanize(field string) string {
	if field == "" {
		return "Value"
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Phone reports whether s is an Egyptian mobile number.
func Phone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// StrongPassword reports whether s satisfies the password policy.
func StrongPassword(s string) bool {
	if len(s) < MinPasswordLength {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
