package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/log"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/services"
	"bookbazaar/internal/validate"
)

type ShopHandler struct {
	Catalog *services.CatalogService
	Likes   *services.LikeService
}

// List is the shops directory. Shops are filtered here, not by the API.
func (h *ShopHandler) List(c *fiber.Ctx) error {
	v := queryValues(c)
	if key, ok := checkQuery(v); !ok {
		log.Security(c, "validation.fail", map[string]any{"field": key})
		return c.Status(fiber.StatusBadRequest).Render("shops", fiber.Map{
			"Shops": []domain.Shop{}, "Err": "Invalid filter value. Please adjust your filters.",
		})
	}
	ctrl := h.Catalog.Shops()
	defer ctrl.Close()
	ctrl.InitializeFromURL(v)
	_, regs := loadReference(c, h.Catalog, ctrl)

	res, err := ctrl.Fetch(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"Shops":     res.Items,
		"State":     ctrl.URLState(),
		"Pager":     newPager("/shops", ctrl.URLState(), res.Pagination),
		"Regions":   regs,
		"Districts": ctrl.Districts(),
	}
	if res.Err != nil {
		log.Error(c, "shops.list.fail", res.Err, nil)
		data["Err"] = "Could not load shops. Please retry."
	}
	return render(c, "shops", data)
}

// Detail is a shop page with that shop's books, filtered by the API.
func (h *ShopHandler) Detail(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This shop is no longer available")
	}
	shop, err := h.Catalog.Shop(c.UserContext(), id)
	if errors.Is(err, marketapi.ErrNotFound) {
		return notFound(c, "This shop is no longer available")
	}
	if err != nil {
		log.Error(c, "shop.detail.fail", err, map[string]any{"shop": id})
		return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{"Message": "Could not load this shop. Please retry."})
	}

	v := queryValues(c)
	if key, ok := checkQuery(v); !ok {
		log.Security(c, "validation.fail", map[string]any{"field": key})
		v = nil
	}
	ctrl := h.Catalog.ShopBooks(id)
	defer ctrl.Close()
	ctrl.InitializeFromURL(v)
	cats, _ := loadReference(c, h.Catalog, ctrl)

	res, err := ctrl.Fetch(c.UserContext())
	if err != nil {
		return err
	}
	base := "/shops/" + c.Params("id")
	data := fiber.Map{
		"Shop":       shop,
		"Books":      h.Likes.Decorate(c.UserContext(), sid, res.Items),
		"State":      ctrl.URLState(),
		"Pager":      newPager(base, ctrl.URLState(), res.Pagination),
		"Categories": cats,
		"Base":       base,
	}
	if res.Err != nil {
		log.Error(c, "shop.books.fail", res.Err, map[string]any{"shop": id})
		data["Err"] = "Could not load this shop's books. Please retry."
	}
	return render(c, "shop", data)
}
