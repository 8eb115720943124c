package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/studywise/session-service/internal/errors"
)

// Validator combines struct-tag validation with the draft question field
// rules that cannot be expressed as tags.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	// Report JSON field names in error messages
	structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs struct validation and converts failures to per-field errors
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("exam_duration", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 1 && d <= 300
	})
	validate.RegisterValidation("question_score", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() > 0
	})
	validate.RegisterValidation("navigation_action", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "next", "previous", "jump":
			return true
		}
		return false
	})
}
