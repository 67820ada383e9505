package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

var statuses = []struct {
	err    error
	status int
}{
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized},
	{domain.ErrPermissionDenied, fiber.StatusForbidden},
	{domain.ErrMalformedID, fiber.StatusBadRequest},
	{domain.ErrValidation, fiber.StatusBadRequest},
	{domain.ErrNotFound, fiber.StatusNotFound},
	{domain.ErrInvalidReference, fiber.StatusUnprocessableEntity},
}

func statusOf(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return fiber.StatusInternalServerError
}

// fail writes err as {"error":{"code","message"}}. Store failures keep
// their detail in the log only.
func fail(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		msg = "store failure"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"code": domain.Code(err), "message": msg},
	})
}
