package handlers

import (
	"errors"
	"time"

	"bookbazaar/internal/log"
	"bookbazaar/internal/services"
	"bookbazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
}

// ensureSID returns the browser session id, issuing one on first visit. The
// like caches and the signed-in user hang off it.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		if issued, ok := c.Locals("sid").(string); ok {
			return issued
		}
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
		c.Locals("sid", sid)
	}
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	username := c.FormValue("username")
	pass := c.FormValue("password")
	fail := func(status int, msg string) error {
		return c.Status(status).Render("login", fiber.Map{"Err": msg, "CSRFToken": c.Cookies("csrf_")})
	}
	if _, ok := validate.Username(username); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_format"})
		return fail(fiber.StatusUnauthorized, "Invalid username or password")
	}
	if !validate.Password(pass) {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_password_format"})
		return fail(fiber.StatusUnauthorized, "Invalid username or password")
	}

	_, err := h.Auth.Login(c.UserContext(), sid, username, pass)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return fail(fiber.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		log.Error(c, "auth.login.error", err, map[string]any{"username": username})
		return fail(fiber.StatusBadGateway, "Sign-in is unavailable right now. Please try again.")
	}

	log.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.Redirect("/books")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/books")
}
