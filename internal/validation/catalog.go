// Package validation содержит функции валидации входных данных каталога.
package validation

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	contactNumberLength = 10
	sortCodeLength      = 6
)

// IsDigits проверяет, что строка непустая и состоит только из цифр.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}

// IsValidContactNumber проверяет, что контактный номер состоит ровно из 10 цифр.
func IsValidContactNumber(number string) bool {
	return len(number) == contactNumberLength && IsDigits(number)
}

// IsValidSortCode проверяет, что код банка (sort code / IFSC) состоит ровно из 6 символов.
func IsValidSortCode(code string) bool {
	return strings.TrimSpace(code) != "" && len([]rune(code)) == sortCodeLength
}

// New создаёт валидатор с зарегистрированными правилами каталога:
// contact10, sortcode и digits.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("contact10", func(fl validator.FieldLevel) bool {
		return IsValidContactNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("sortcode", func(fl validator.FieldLevel) bool {
		return IsValidSortCode(fl.Field().String())
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return IsDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}
