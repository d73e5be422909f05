package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/filters"
	"bookbazaar/internal/log"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/services"
	"bookbazaar/internal/validate"
)

type BookHandler struct {
	Catalog *services.CatalogService
	Likes   *services.LikeService
}

// checkQuery validates every recognized listing parameter in v and returns
// the first bad key.
func checkQuery(v url.Values) (string, bool) {
	for _, k := range filters.Keys() {
		if _, ok := validate.Filter(k, v.Get(k)); !ok {
			return k, false
		}
	}
	if q := v.Get("q"); q != "" {
		if _, ok := validate.Q(q); !ok {
			return "q", false
		}
	}
	return "", true
}

// loadReference installs categories and regions on a controller. Listing
// still works without them; names just stay unresolved.
func loadReference[T any](c *fiber.Ctx, catalog *services.CatalogService, ctrl *filters.Controller[T]) ([]domain.Category, []domain.Region) {
	cats, regs, err := catalog.Reference(c.UserContext())
	if err != nil {
		log.Error(c, "reference.load.fail", err, nil)
		return nil, nil
	}
	ctrl.SetReference(cats, regs)
	return cats, regs
}

func (h *BookHandler) List(c *fiber.Ctx) error {
	sid := ensureSID(c)
	v := queryValues(c)
	if key, ok := checkQuery(v); !ok {
		log.Security(c, "validation.fail", map[string]any{"field": key, "value": v.Get(key)})
		return c.Status(fiber.StatusBadRequest).Render("books", fiber.Map{
			"Books": []domain.Book{}, "Err": "Invalid filter value. Please adjust your filters.",
		})
	}

	ctrl := h.Catalog.Books()
	defer ctrl.Close()
	ctrl.InitializeFromURL(v)
	cats, regs := loadReference(c, h.Catalog, ctrl)

	res, err := ctrl.Fetch(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"Books":    h.Likes.Decorate(c.UserContext(), sid, res.Items),
		"State":    ctrl.URLState(),
		"Pager":    newPager("/books", ctrl.URLState(), res.Pagination),
		"Controls": bookControls(ctrl.URLState(), cats, regs, ctrl.Districts()),
		"Hidden":   hiddenState(ctrl.URLState()),
	}
	if res.Err != nil {
		log.Error(c, "books.list.fail", res.Err, nil)
		data["Err"] = "Could not load books. Please retry."
	}
	return render(c, "books", data)
}

// Filter applies one filter change to the state in the query string and
// redirects to the rewritten listing URL.
func (h *BookHandler) Filter(c *fiber.Ctx) error {
	v := queryValues(c)
	key, value := v.Get("key"), v.Get("value")
	v.Del("key")
	v.Del("value")
	if bad, ok := checkQuery(v); !ok {
		log.Security(c, "validation.fail", map[string]any{"field": bad})
		return c.Redirect("/books")
	}

	ctrl := h.Catalog.Books()
	defer ctrl.Close()
	ctrl.InitializeFromURL(v)
	loadReference(c, h.Catalog, ctrl)

	switch key {
	case "q":
		q := ""
		if value != "" {
			var ok bool
			if q, ok = validate.Q(value); !ok {
				log.Security(c, "validation.fail", map[string]any{"field": "q"})
				return c.Redirect(withQuery("/books", ctrl.URL()))
			}
		}
		ctrl.SetQuery(q)
	case "page":
		ctrl.SetPage(validate.Page(value))
	default:
		clean, ok := validate.Filter(key, value)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": key, "value": value})
			return c.Redirect(withQuery("/books", ctrl.URL()))
		}
		if err := ctrl.SetFilter(key, clean); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	return c.Redirect(withQuery("/books", ctrl.URL()))
}

func (h *BookHandler) Clear(c *fiber.Ctx) error {
	ctrl := h.Catalog.Books()
	defer ctrl.Close()
	ctrl.InitializeFromURL(queryValues(c))
	ctrl.ClearFilters()
	log.Audit(c, "books.filters.clear", nil)
	return c.Redirect(withQuery("/books", ctrl.URL()))
}

func (h *BookHandler) Detail(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This book is no longer available")
	}
	ctx := c.UserContext()
	d, err := h.Catalog.BookDetail(ctx, detailView(c, sid), id)
	switch {
	case errors.Is(err, marketapi.ErrNotFound):
		return notFound(c, "This book is no longer available")
	case errors.Is(err, services.ErrSuperseded):
		return c.SendStatus(fiber.StatusConflict)
	case err != nil:
		log.Error(c, "book.detail.fail", err, map[string]any{"book": id})
		return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{"Message": "Could not load this book. Please retry."})
	}
	book := h.Likes.Decorate(ctx, sid, []domain.Book{d.Book})[0]
	return render(c, "book", fiber.Map{
		"Book":     book,
		"Comments": h.Likes.Thread(ctx, sid, d.Comments).Comments(),
	})
}

// detailView names the page instance asking for a detail load. Scripts that
// reload a detail in place pass ?view= so only their own stale loads are
// dropped; plain page loads get a view of their own and never collide.
func detailView(c *fiber.Ctx, sid string) string {
	if v := c.Query("view"); v != "" && len(v) <= 64 {
		return sid + ":" + v
	}
	return sid + ":" + uuid.NewString()
}
