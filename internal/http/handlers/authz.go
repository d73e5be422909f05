package handlers

import (
	"bookbazaar/internal/domain"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AttachUser puts the signed-in user, if any, into Locals for templates and
// handlers, and forwards their access token on every API call made with the
// request context.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(sid); err == nil && u != nil {
				setUser(c, u)
			}
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !auth.Authenticated(u) {
			return c.Redirect("/login")
		}
		setUser(c, u)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, u *domain.User) {
	c.Locals("user", u)
	if u.AccessToken != "" {
		c.SetUserContext(marketapi.WithToken(c.UserContext(), u.AccessToken))
	}
}
