// Package validation checks user input before it is sent to the backend.
// Failures are reported per field with messages meant to be shown as-is.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidForm is matched by every FieldErrors value.
var ErrInvalidForm = errors.New("invalid form")

// FieldErrors maps a form field to its first failing rule's message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, k := range fields {
		parts[i] = k + ": " + f[k]
	}
	return strings.Join(parts, "; ")
}

func (f FieldErrors) Unwrap() error { return ErrInvalidForm }

type RegisterForm struct {
	Name     string `json:"name" validate:"min=2,max=50,alphaspace"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8,has_upper,has_lower,has_digit,has_special"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"required"`
}

var (
	alphaSpaceRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	upperRe      = regexp.MustCompile(`[A-Z]`)
	lowerRe      = regexp.MustCompile(`[a-z]`)
	digitRe      = regexp.MustCompile(`\d`)
	specialRe    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// messages is keyed by "<json field>.<tag>".
var messages = map[string]string{
	"name.min":             "Name must be at least 2 characters",
	"name.max":             "Name must not exceed 50 characters",
	"name.alphaspace":      "Name can only contain letters and spaces",
	"email.email":          "Please provide a valid email address",
	"password.min":         "Password must be at least 8 characters long",
	"password.has_upper":   "Password must contain at least one uppercase letter",
	"password.has_lower":   "Password must contain at least one lowercase letter",
	"password.has_digit":   "Password must contain at least one number",
	"password.has_special": "Password must contain at least one special character",
	"password.required":    "Password is required",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("alphaspace", regexRule(alphaSpaceRe))
		_ = v.RegisterValidation("has_upper", regexRule(upperRe))
		_ = v.RegisterValidation("has_lower", regexRule(lowerRe))
		_ = v.RegisterValidation("has_digit", regexRule(digitRe))
		_ = v.RegisterValidation("has_special", regexRule(specialRe))
		validate = v
	})
	return validate
}

// Struct validates a form and returns FieldErrors, or nil when it is valid.
func Struct(form any) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = field + " is invalid"
		}
		out[field] = msg
	}
	return out
}

func ValidateRegister(f RegisterForm) error { return Struct(f) }

func ValidateLogin(f LoginForm) error { return Struct(f) }
