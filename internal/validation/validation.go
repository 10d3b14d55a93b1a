// Package validation holds the request checks that run before any call to
// the identity or table service. Every function is pure.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/models"
)

// DefaultPasswordMinLength is the minimum accepted unless configured otherwise.
const DefaultPasswordMinLength = 8

var binIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("bin_id", func(fl validator.FieldLevel) bool {
		return binIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates a decoded request body against its `validate` tags.
func Struct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("Invalid request body")
	}
	return apperr.Validation(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email format"
	case "bin_id":
		return fmt.Sprintf("%s must be 1-64 letters, digits, '-' or '_'", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		if field == "level" || field == "wasteLevel" {
			return "Waste level must be between 0 and 100"
		}
		return fmt.Sprintf("%s is out of range", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return apperr.Validation("Invalid email format")
	}
	return nil
}

func Password(password string, minLength int) error {
	if password == "" {
		return apperr.Validation("Password is required")
	}
	if len(password) < minLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", minLength))
	}
	return nil
}

func BinID(id string) error {
	if !binIDPattern.MatchString(id) {
		return apperr.Validation("Invalid bin ID")
	}
	return nil
}

func WasteLevel(level int) error {
	if level < 0 || level > 100 {
		return apperr.Validation("Waste level must be between 0 and 100")
	}
	return nil
}

// Role accepts the current roles and the legacy "user" role.
func Role(role string) error {
	switch role {
	case models.RoleAdmin, models.RoleClient, models.RoleLegacyUser:
		return nil
	}
	return apperr.Validation("Role must be 'admin' or 'client'")
}

func ScheduleStatus(status string) error {
	switch status {
	case models.ScheduleStatusPending, models.ScheduleStatusCompleted, models.ScheduleStatusCancelled:
		return nil
	}
	return apperr.Validation("Status must be one of: pending, completed, cancelled")
}

func TransactionStatus(status string) error {
	switch status {
	case models.TransactionStatusPending, models.TransactionStatusCompleted, models.TransactionStatusFailed:
		return nil
	}
	return apperr.Validation("Status must be one of: pending, completed, failed")
}

// ScheduleTransition reports whether a pickup schedule may move from
// current to next. Completed and cancelled schedules are final.
func ScheduleTransition(current, next string) error {
	if err := ScheduleStatus(next); err != nil {
		return err
	}
	if current == next {
		return apperr.Validation(fmt.Sprintf("Schedule is already %s", current))
	}
	if current != models.ScheduleStatusPending {
		return apperr.Validation(fmt.Sprintf("Cannot change a %s schedule", current))
	}
	return nil
}
