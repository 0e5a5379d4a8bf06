package utils

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Custom validations
	_ = v.RegisterValidation("slug", validateSlug)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Event codes appear in storage keys and admin URLs.
func validateSlug(fl validator.FieldLevel) bool {
	return IsSlug(fl.Field().String())
}
