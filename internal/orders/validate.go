package orders

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
)

var formValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

func validateCreate(input CreateInput) error {
	details := map[string]string{}

	var fieldErrs validator.ValidationErrors
	if err := formValidator.Struct(input); err != nil {
		if !errors.As(err, &fieldErrs) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		for _, fe := range fieldErrs {
			details[strings.TrimPrefix(fe.Namespace(), "CreateInput.")] = fieldMessage(fe)
		}
	}
	for i, item := range input.Items {
		if item.UnitPrice.IsNegative() {
			details[fmt.Sprintf("items[%d].price", i)] = "must be at least 0"
		}
	}
	if input.Total.IsNegative() {
		details["total"] = "must be at least 0"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}
