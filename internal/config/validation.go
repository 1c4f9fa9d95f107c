package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validatorInstance wraps go-playground/validator with the project's
// error-message formatting, same as the teacher's config.Validator.
type validatorInstance struct {
	validate *validator.Validate
}

func newValidator() *validatorInstance {
	return &validatorInstance{validate: validator.New()}
}

func (v *validatorInstance) check(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatErr(err)
	}
	return nil
}

func (v *validatorInstance) formatErr(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var messages []string
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Field(), e.Tag(), e.Value(),
		))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// Validate checks cfg's required paths, num-threads≥1, and
// nmp-threshold>0, mirroring the teacher's ValidateConfig gate before
// the pipeline starts.
func Validate(cfg *Config) error {
	return newValidator().check(cfg)
}
