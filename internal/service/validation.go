package service

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// simpleEmailPattern accepts anything shaped like local@domain.tld.
var simpleEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewValidator returns a validator with the project's custom rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerRules(v)
	return v
}

func registerRules(v *validator.Validate) {
	mustRegister(v, "simple_email", func(fl validator.FieldLevel) bool {
		return simpleEmailPattern.MatchString(fl.Field().String())
	})
}

// mustRegister panics when a rule cannot be registered; an unregistered tag would fail
// every value it is applied to.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// firstFieldMessage maps the first failing struct field to its user-facing message.
func firstFieldMessage(err error, messages map[string]string, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := messages[fieldErrs[0].Field()]; ok {
			return msg
		}
	}
	return fallback
}
