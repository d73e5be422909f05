package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "bookbazaar/internal/log"
	"bookbazaar/internal/services"
)

// Register mounts the storefront routes on app.
func Register(app *fiber.App, d *Deps, auth *services.AuthService) {
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/books") })

	// Listings and detail pages
	app.Get("/books", d.BookHandler.List)
	app.Get("/books/filter", d.BookHandler.Filter)
	app.Get("/books/clear", d.BookHandler.Clear)
	app.Get("/books/:id", d.BookHandler.Detail)
	app.Get("/shops", d.ShopHandler.List)
	app.Get("/shops/:id", d.ShopHandler.Detail)
	app.Get("/wishlist", d.WishlistHandler.List)

	// Likes (throttled per client)
	likeLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|like"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.like.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"notice": "Too many clicks, slow down a little."})
		},
	})
	app.Post("/books/:id/like", likeLimiter, d.LikeHandler.ToggleBook)
	app.Post("/books/:id/comments/:cid/like", likeLimiter, d.LikeHandler.ToggleComment)

	// API
	api := app.Group("/api/v1")
	api.Get("/books", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|api"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.APIHandler.Books)
	api.Get("/likes/stream", d.StreamHandler.Likes)

	// Auth routes (login throttled)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", RequireUser(auth), d.AuthHandler.Logout)
}
