package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/map-metadata/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// metadata_table - имя одной из четырёх таблиц
	_ = validate.RegisterValidation("metadata_table", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseTableName(fl.Field().String())
		return err == nil
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// FieldErrors раскладывает ошибку валидации по полям: поле -> нарушенное правило
func FieldErrors(err error) map[string]interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]interface{}{"error": err.Error()}
	}
	out := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
