package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var setupOnce sync.Once

// SetupValidator configures gin's validator: JSON field names in errors,
// Money handled as a decimal string, and the ledger-specific tags
//
//	money_positive     amount > 0
//	money_nonnegative  amount >= 0
//	budget_type        income | expense
//	payment_mode       cash | bank_transfer | check | upi | card | gateway
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
		v.RegisterCustomTypeFunc(moneyValue, valueobject.Money{})
		_ = v.RegisterValidation("money_positive", moneySign(func(d decimal.Decimal) bool { return d.IsPositive() }))
		_ = v.RegisterValidation("money_nonnegative", moneySign(func(d decimal.Decimal) bool { return !d.IsNegative() }))
		_ = v.RegisterValidation("budget_type", func(fl validator.FieldLevel) bool {
			return budget.BudgetType(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("payment_mode", func(fl validator.FieldLevel) bool {
			return finance.PaymentMode(fl.Field().String()).IsValid()
		})
	})
}

// moneyValue exposes Money to the validator as its decimal string
func moneyValue(field reflect.Value) interface{} {
	if m, ok := field.Interface().(valueobject.Money); ok {
		return m.Amount().String()
	}
	return nil
}

func moneySign(accept func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return accept(d)
	}
}

// FormatValidationErrors formats binding errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeValidation, "Invalid request body: "+err.Error(), requestID)
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "money_positive":
		return "Amount must be greater than zero"
	case "money_nonnegative":
		return "Amount cannot be negative"
	case "budget_type":
		return "Must be one of: income expense"
	case "payment_mode":
		return "Must be one of: cash bank_transfer check upi card gateway"
	default:
		return "Invalid value"
	}
}
