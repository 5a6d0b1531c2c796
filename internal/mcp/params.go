package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field errors are reported by
// their JSON names, and the "decimal" tag accepts a base-10 amount string.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// decodeParams unmarshals params into out and checks its shape. Range and
// calendar rules are left to the ledger.
func decodeParams(params json.RawMessage, out any) error {
	if len(params) != 0 {
		if err := json.Unmarshal(params, out); err != nil {
			return invalidParams(fmt.Sprintf("malformed params: %v", err), nil)
		}
	}
	if err := getValidator().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return invalidParams(err.Error(), nil)
		}
		fields := make([]map[string]string, 0, len(verrs))
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, map[string]string{"field": fe.Field(), "tag": fe.Tag()})
			messages = append(messages, fieldMessage(fe))
		}
		return invalidParams(strings.Join(messages, "; "), map[string]any{"fields": fields})
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		return fe.Field() + " must be a YYYY-MM-DD date"
	case "decimal":
		return fe.Field() + " must be a decimal amount"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
}

func invalidParams(message string, details any) *APIError {
	return &APIError{
		Code:         CodeInvalidParams,
		Message:      message,
		Details:      details,
		RecoveryHint: "Check the method's input schema",
	}
}

// parseDate reads a field that already passed the datetime tag.
func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

// parseAmount reads a field that already passed the decimal tag.
func parseAmount(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
