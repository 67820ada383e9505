package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

const identityKey = "identity"

// identify resolves the bearer credential, if any, and stores the identity
// in the request locals. A bad credential leaves the caller anonymous and
// the gate rejects it.
func identify(idp *auth.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		id, err := idp.Resolve(c.UserContext(), header)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				return fail(c, err)
			}
			return c.Next()
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

func caller(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(identityKey).(*auth.Identity)
	return id
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func registerAuth(app *fiber.App, idp *auth.Provider) {
	g := app.Group("/auth")

	g.Post("/token", func(c *fiber.Ctx) error {
		var in credentials
		if err := parse(c, &in); err != nil {
			return fail(c, err)
		}
		pair, err := idp.Obtain(c.UserContext(), in.Username, in.Password)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(pair)
	})

	g.Post("/verify", func(c *fiber.Ctx) error {
		var in tokenBody
		if err := parse(c, &in); err != nil {
			return fail(c, err)
		}
		claims, err := idp.Verify(c.UserContext(), in.Token)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"payload": fiber.Map{
			"username": claims.Username,
			"exp":      claims.ExpiresAt.Unix(),
			"iat":      claims.IssuedAt.Unix(),
		}})
	})

	g.Post("/refresh", func(c *fiber.Ctx) error {
		var in tokenBody
		if err := parse(c, &in); err != nil {
			return fail(c, err)
		}
		pair, err := idp.Refresh(c.UserContext(), in.RefreshToken)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(pair)
	})

	g.Post("/revoke", func(c *fiber.Ctx) error {
		var in tokenBody
		if err := parse(c, &in); err != nil {
			return fail(c, err)
		}
		if err := idp.Revoke(c.UserContext(), in.RefreshToken); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"revoked": true})
	})

	g.Post("/invalidate", func(c *fiber.Ctx) error {
		var in tokenBody
		if err := parse(c, &in); err != nil {
			return fail(c, err)
		}
		if err := idp.Invalidate(c.UserContext(), in.Token); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"invalidated": true})
	})
}
