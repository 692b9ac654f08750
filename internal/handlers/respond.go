package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"tokoshop/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:       fiber.StatusBadRequest,
	apperrors.KindNotFound:         fiber.StatusNotFound,
	apperrors.KindOutOfStock:       fiber.StatusConflict,
	apperrors.KindEmptyCart:        fiber.StatusBadRequest,
	apperrors.KindAlreadyPaid:      fiber.StatusConflict,
	apperrors.KindTransientStorage: fiber.StatusServiceUnavailable,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[apperrors.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes the {"kind", "message"} error body.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"kind":    kind,
		"message": apperrors.Message(err),
	})
}

// bindBody decodes and validates the request body into req. When it
// returns false the error response is already written and err is the
// handler's return value.
func bindBody(c *fiber.Ctx, validate *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"kind":    apperrors.KindValidation,
			"message": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, respondError(c, apperrors.Validation("%s", err.Error()))
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"kind":    apperrors.KindValidation,
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// idParam parses a positive numeric path parameter; anything else cannot
// name an existing row.
func idParam(c *fiber.Ctx, name, what string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound("%s %s not found", what, raw)
	}
	return uint(id), nil
}
