package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/ai-tour-quote/backend/internal/quote"
)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator создает валидатор на базе go-playground/validator с правилом pax_tiers.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("pax_tiers", validatePaxTiers)
	return &CustomValidator{validator: v}
}

// Validate запускает проверку структуры по тегам.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func validatePaxTiers(fl validator.FieldLevel) bool {
	tiers, ok := fl.Field().Interface().([]int)
	if !ok {
		return false
	}
	return quote.ValidateTiers(tiers) == nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
