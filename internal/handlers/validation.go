package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Arielpetit/UDM/internal/common"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// validate is shared by every handler; field errors are reported by json name.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindAndValidate decodes the request body into v and runs its validate tags.
func bindAndValidate(c echo.Context, v interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return &common.ValidationError{Field: "body", Message: "invalid request format"}
	}
	return validateStruct(v)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &common.ValidationError{Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &common.ValidationError{Field: fieldPath(fe), Message: describe(fe)}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed '%s' check", fe.Tag())
	}
}

// queryInts binds the named integer query parameters.
func queryInts(c echo.Context, dest map[string]*int) error {
	b := echo.QueryParamsBinder(c)
	for name, ptr := range dest {
		b = b.Int(name, ptr)
	}
	if err := b.BindError(); err != nil {
		var bindErr *echo.BindingError
		if errors.As(err, &bindErr) && len(bindErr.Field) > 0 {
			return common.NewValidationError(bindErr.Field, "must be an integer")
		}
		return common.NewValidationError("query", "must be an integer")
	}
	return nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param(name), name)
}
