// Package validation validates request structs with validator/v10 and
// converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/linknlink/linknlink-server/internal/color"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports JSON field names and knows the
// "taghex" rule (#RGB or #RRGGBB).
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("taghex", func(fl validator.FieldLevel) bool {
		return color.IsHex(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validation: register taghex: %v", err))
	}

	return &Validator{v: v}
}

// Validate validates s. The returned error is a *errors.Error whose message
// names the first failing field and whose details map every field to a
// readable reason.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = friendlyMessage(fe)
	}

	first := fieldErrs[0]
	msg := fmt.Sprintf("%s %s", first.Field(), friendlyMessage(first))
	return domainerrors.ValidationWithDetails(msg, details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "eqfield":
		return "must match " + e.Param()
	case "taghex":
		return "must be a hex color like #3b82f6"
	case "url", "http_url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
