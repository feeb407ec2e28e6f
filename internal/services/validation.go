package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks input against its validate tags. The first failing
// field decides the error: oneof failures are invalid statuses, everything
// else is a missing field reported with missingMessage.
func validateInput(input interface{}, missingMessage string) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return internalError(err)
	}

	switch verrs[0].Tag() {
	case "oneof":
		return NewError(KindInvalidStatus, MsgInvalidStatus)
	default:
		return WrapError(KindMissingField, missingMessage, verrs[0])
	}
}
