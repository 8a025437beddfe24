package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return "Invalid input: " + strings.Join(parts, ", ")
}

// bindJSON parses and validates the body. On failure it returns the message
// to send with a 400.
func bindJSON(c *fiber.Ctx, v *validator.Validate, dst interface{}) (string, bool) {
	if err := c.BodyParser(dst); err != nil {
		return "Invalid input: " + err.Error(), false
	}
	if err := v.Struct(dst); err != nil {
		return validationMessage(err), false
	}
	return "", true
}
