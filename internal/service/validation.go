package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unirecords/university-api/pkg/errors"
)

// newValidator builds a validator that reports field names as they appear on
// the wire (json tags) rather than as Go struct fields.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts a validator failure into a client-facing error
// enumerating every violated field constraint.
func validationError(message string, err error) *appErrors.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]appErrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, appErrors.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return appErrors.Validation(message, details)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
