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

type CaregiverValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCaregiverValidator(log *logger.Logger) *CaregiverValidator {
	v := validator.New()

	if err := v.RegisterValidation("specialty", validateSpecialty); err != nil {
		log.Fatal("Failed to register 'specialty' validator", "error", err)
	}

	log.Info("Caregiver validator initialized successfully")

	return &CaregiverValidator{
		validate: v,
		logger:   log,
	}
}

func validateSpecialty(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(model.Specialty)
	if !ok {
		return model.Specialty(fl.Field().String()).Valid()
	}
	return s.Valid()
}

func (cv *CaregiverValidator) ValidateCaregiver(caregiver *model.Caregiver) error {
	if caregiver == nil {
		return ValidationError{Field: "caregiver", Message: "caregiver cannot be nil"}
	}
	return cv.collect(cv.validate.Struct(caregiver))
}

func (cv *CaregiverValidator) ValidateUpdate(updates *model.CaregiverUpdate) error {
	if updates == nil {
		return ValidationError{Field: "updates", Message: "updates cannot be nil"}
	}
	return cv.collect(cv.validate.Struct(updates))
}

func (cv *CaregiverValidator) collect(err error) error {
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return ValidationError{Field: "caregiver", Message: err.Error()}
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
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid4":
		return "must be a valid UUID"
	case "iso4217":
		return "must be a valid ISO 4217 currency code"
	case "timezone":
		return "must be a valid IANA time zone"
	case "specialty":
		return fmt.Sprintf("must be one of %v", model.Specialties)
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
