package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ErrorCodeKey holds the error code of a failed request for span tagging.
const ErrorCodeKey = "error_code"

var setupOnce sync.Once

// SetupValidator names fields by their json tag in validation errors and
// registers the decimal rules. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})

		// decimals validate as their string form so the rules below see them
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("decimal_gt0", decimalRule(decimal.Decimal.IsPositive))
		_ = v.RegisterValidation("decimal_gte0", decimalRule(func(d decimal.Decimal) bool { return !d.IsNegative() }))
	})
}

func decimalRule(accept func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && accept(d)
	}
}

// HandleValidationError answers 400 for a failed bind. Field errors are
// listed; malformed bodies get a generic message.
func HandleValidationError(c *gin.Context, err error) {
	c.Set(ErrorCodeKey, dto.CodeValidation)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Malformed request: "+err.Error(), GetRequestID(c), nil))
		return
	}

	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed", GetRequestID(c), details))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "Must contain at least " + fe.Param() + " items"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "uuid":
		return "Must be a valid UUID"
	case "decimal_gt0":
		return "Must be a positive amount"
	case "decimal_gte0":
		return "Must not be negative"
	default:
		return "Invalid value"
	}
}
