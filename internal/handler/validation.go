package handler

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"propelize/internal/apperr"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MsgInvalidRequest is the message of every request validation failure.
const MsgInvalidRequest = "invalid request data"

var registrationPattern = regexp.MustCompile(`^[A-Z]{2}-\d{3}-[A-Z]{2}$`)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("handler: gin validator engine is not go-playground/validator")
		}
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "regnum", validateRegistration)
		mustRegister(v, "maxyear", validateMaxYear)
		mustRegister(v, "price2", validatePrice)
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("handler: register %s validator: %v", tag, err))
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func validateRegistration(fl validator.FieldLevel) bool {
	return registrationPattern.MatchString(strings.ToUpper(fl.Field().String()))
}

// validateMaxYear accepts next year's models.
func validateMaxYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year()+1)
}

// validatePrice accepts at most two decimal places.
func validatePrice(fl validator.FieldLevel) bool {
	cents := fl.Field().Float() * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// bindError converts a ShouldBind* failure into a Validation error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(MsgInvalidRequest, "malformed request body")
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describeFieldError(fe))
	}
	return apperr.Validation(MsgInvalidRequest, details...)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "regnum":
		return field + " must match the format XX-123-XX"
	case "maxyear":
		return field + " must not be later than next year"
	case "price2":
		return field + " must have at most two decimal places"
	default:
		return field + " is invalid"
	}
}
