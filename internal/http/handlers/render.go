package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/filters"
	applog "bookbazaar/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// The CSRF middleware may not have run (GET-only test apps); fall back to
	// the cookie so forms still carry a token.
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// ErrorHandler logs the error and shows a friendly page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
	}
	applog.Error(c, "server.error", err, map[string]any{"status": code})
	msg := "Something went wrong. Please try again."
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// queryValues returns the raw query string as url.Values, keeping repeated
// keys.
func queryValues(c *fiber.Ctx) url.Values {
	v, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return v
}

type pageLink struct {
	N       int
	URL     string
	Current bool
}

type pager struct {
	filters.Pagination
	Links   []pageLink
	PrevURL string
	NextURL string
}

// newPager builds the pagination block of a listing page. base is the
// listing path and query the encoded state without a page.
func newPager(base string, st filters.State, p filters.Pagination) pager {
	link := func(n int) string {
		s := st
		s.Page = n
		if q := filters.Encode(s); q != "" {
			return base + "?" + q
		}
		return base
	}
	out := pager{Pagination: p}
	for _, n := range p.Window(7) {
		out.Links = append(out.Links, pageLink{N: n, URL: link(n), Current: n == p.Page})
	}
	if p.HasPrevious() {
		out.PrevURL = link(p.Page - 1)
	}
	if p.HasNext() {
		out.NextURL = link(p.Page + 1)
	}
	return out
}

func withQuery(base, q string) string {
	if q == "" {
		return base
	}
	return base + "?" + q
}
