// Package validate checks entity struct tags and reports failures as
// apperr.ValidationError reasons keyed by JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return val
}

// Struct validates s and appends any extra reasons computed by the caller.
// It returns nil when nothing failed.
func Struct(entity string, s any, extra ...apperr.Reason) error {
	var reasons []apperr.Reason

	if err := v.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validating %s: %w", entity, err)
		}

		for _, fe := range fieldErrs {
			reasons = append(reasons, apperr.Reason{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: message(fe),
			})
		}
	}

	reasons = append(reasons, extra...)
	if len(reasons) == 0 {
		return nil
	}

	return apperr.Invalid(entity, reasons...)
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		if isString {
			return "must be at least " + fe.Param() + " characters"
		}

		return "must be at least " + fe.Param()
	case "max", "lte":
		if isString {
			return "must be at most " + fe.Param() + " characters"
		}

		return "must be at most " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must match layout " + fe.Param()
	case "hexcolor":
		return "must be a hex color like #RRGGBB"
	}

	return "failed rule " + fe.Tag()
}
