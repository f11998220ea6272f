package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// FieldErrors converts a validation error into a field -> constraint map
// suitable for AppError details. Non-validator errors yield a single
// "error" entry.
func FieldErrors(err error) map[string]interface{} {
	details := make(map[string]interface{})
	if err == nil {
		return details
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		details["error"] = err.Error()
		return details
	}

	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
