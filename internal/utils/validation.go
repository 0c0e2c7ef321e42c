package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// validate checks single values outside of gin binding.
var validate = validator.New(validator.WithRequiredStructEnabled())

// FormatValidationError formats validation errors into a readable string.
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, describeFieldError(e))
		}
		return strings.Join(messages, ", ")
	}
	return err.Error()
}

func describeFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", e.Field(), e.Tag(), e.Param())
	}
	return fmt.Sprintf("%s failed on the '%s' rule", e.Field(), e.Tag())
}

// BindAndValidate binds the request body to a struct and validates its
// `binding` tags. If either fails, it sends a BadRequest response and
// returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			BadRequest(c, "Validation failed: "+FormatValidationError(err))
		} else {
			BadRequest(c, "Invalid request payload: "+err.Error())
		}
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		BadRequest(c, "Invalid query parameters: "+FormatValidationError(err))
		return false
	}
	return true
}

// PathID reads a UUID path parameter. It sends a BadRequest response and
// returns false when the value is not a UUID.
func PathID(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if err := validate.Var(value, "required,uuid"); err != nil {
		BadRequest(c, fmt.Sprintf("Invalid %s: must be a UUID", name))
		return "", false
	}
	return value, true
}
