// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/datasov-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("address", validateAddress)
	validate.RegisterValidation("evidence_ref", validateEvidenceRef)
	validate.RegisterValidation("data_category", validateDataCategory)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Account addresses are opaque, 3-128 characters.
func validateAddress(fl validator.FieldLevel) bool {
	address := fl.Field().String()
	if len(address) < 3 || len(address) > 128 {
		return false
	}
	return addressPattern.MatchString(address)
}

func validateEvidenceRef(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= models.MaxEvidenceRefLength
}

func validateDataCategory(fl validator.FieldLevel) bool {
	_, _, ok := models.ParseCategoryRef(fl.Field().String())
	return ok
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
	case "address":
		return "Address must be 3-128 characters of letters, numbers, '_', '.', ':' or '-'"
	case "evidence_ref":
		return e.Field() + " must be at most 128 bytes"
	case "data_category":
		return e.Field() + " is not a known data category"
	default:
		return e.Field() + " is invalid"
	}
}
