package validator

import (
	"log"

	"tourbook_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные функции валидации
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Приложение не должно стартовать без своих правил
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-user-role': роль из фиксированного набора
	mustRegister("is-user-role", validateUserRole)
}

func validateUserRole(fl validator.FieldLevel) bool {
	// Пустую роль без указателя пропускает omitempty, а для *UserRole
	// пустая строка - это попытка стереть роль
	return models.UserRole(fl.Field().String()).IsValid()
}
