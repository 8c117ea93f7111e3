// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"finanzas/internal/models"
	"finanzas/internal/uuid"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxEmojiBytes bounds the emoji column; flags and ZWJ sequences fit.
const MaxEmojiBytes = 16

var once sync.Once

// Register registers all custom validators with the Gin binding engine.
// Errors report JSON field names.
func Register() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonTagName)
			v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
			_ = v.RegisterValidation("transaction_kind", validateTransactionKind)
			_ = v.RegisterValidation("user_role", validateUserRole)
			_ = v.RegisterValidation("emoji", validateEmoji)
			_ = v.RegisterValidation("category_filter", validateCategoryFilter)
			_ = v.RegisterValidation("positive_amount", validatePositiveAmount)
		}
	})
}

func jsonTagName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// decimalValue exposes decimals to tag validators as their string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	return models.TransactionKind(fl.Field().String()).Valid()
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

// validateEmoji accepts a short glyph sequence: no letters, digits or spaces.
func validateEmoji(fl validator.FieldLevel) bool {
	return IsEmoji(fl.Field().String())
}

// IsEmoji reports whether s looks like a single emoji glyph sequence.
func IsEmoji(s string) bool {
	if s == "" || len(s) > MaxEmojiBytes || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r < utf8.RuneSelf || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func validateCategoryFilter(fl validator.FieldLevel) bool {
	switch v := fl.Field().String(); v {
	case "", "all", "none":
		return true
	default:
		return uuid.IsValid(v)
	}
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// ToDetails converts binding errors into a field → message map.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return "is required when " + param + " is present"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", param)
		}
		return "must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", param)
		}
		return "must be at most " + param
	case "eqfield":
		return "must match " + param
	case "required_with_all":
		return "is required together with " + param
	case "transaction_kind":
		return "must be one of: ingreso, gasto, ahorro"
	case "user_role":
		return "must be one of: user, admin"
	case "emoji":
		return "must be a single emoji"
	case "category_filter":
		return "must be all, none or a category id"
	case "positive_amount":
		return "must be greater than 0"
	case "dive":
		return "contains an invalid item"
	}
	return "is invalid"
}
