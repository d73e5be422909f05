package handlers

import (
	applog "bookbazaar/internal/log"
	"bookbazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

// List shows the books liked in this session. Partial failures still
// render what loaded.
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	sid := ensureSID(c)
	books, err := h.Wish.List(c.UserContext(), sid)
	data := fiber.Map{"Books": books}
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		data["Err"] = "Some liked books could not be loaded. Please retry."
	}
	return render(c, "wishlist", data)
}
