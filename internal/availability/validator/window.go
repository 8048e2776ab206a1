package validator

import (
	"errors"
	"fmt"
	"strings"

	"carebook/pkg/logger"
	"carebook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type WindowValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewWindowValidator(log *logger.Logger) *WindowValidator {
	v := validator.New()

	log.Info("Availability window validator initialized successfully")

	return &WindowValidator{
		validate: v,
		logger:   log,
	}
}

func (wv *WindowValidator) ValidateWindow(window *model.AvailabilityWindow) error {
	if window == nil {
		return ValidationError{Field: "window", Message: "window cannot be nil"}
	}

	err := wv.validate.Struct(window)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return ValidationError{Field: "window", Message: err.Error()}
	}

	var result ValidationErrors
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			result = append(result, ValidationError{
				Field:   fe.Field(),
				Message: messageForTag(fe),
			})
		}
	}
	return result
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid4":
		return "must be a valid UUID"
	case "gtfield":
		return fmt.Sprintf("must be after %s", fe.Param())
	case "timezone":
		return "must be a valid IANA time zone"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
