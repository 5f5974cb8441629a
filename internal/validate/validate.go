package validate

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var v = validator.New()

// Struct: request body doğrulaması; hata varsa fiber 400 hatasına çevirir.
func Struct(s any) error {
	if err := v.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz alan: "+errs[0].Field())
		}
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}
	return nil
}
