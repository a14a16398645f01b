package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

// NewValidator builds the validator used by all services, reporting fields by
// their JSON names so error detail matches the wire payload.
func NewValidator() *validator.Validate {
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

// invalidPayload converts a validator error into a VALIDATION_ERROR carrying
// per-field detail.
func invalidPayload(err error, message string) *appErrors.Error {
	fields := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				fields[fe.Field()] = "this field is required"
			case "email":
				fields[fe.Field()] = "must be a valid email address"
			case "datetime":
				fields[fe.Field()] = "must be a date in YYYY-MM-DD format"
			case "oneof":
				fields[fe.Field()] = "must be one of: " + fe.Param()
			case "min":
				fields[fe.Field()] = "must be at least " + fe.Param()
			case "gte":
				fields[fe.Field()] = "must be greater than or equal to " + fe.Param()
			default:
				fields[fe.Field()] = "is invalid"
			}
		}
	}
	out := appErrors.Validation(message, fields)
	out.Err = err
	return out
}

func normalizeString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
