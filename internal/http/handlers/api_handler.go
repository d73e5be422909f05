package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/log"
	"bookbazaar/internal/services"
)

type APIHandler struct {
	Catalog *services.CatalogService
	Likes   *services.LikeService
}

type listingJSON struct {
	Query       string        `json:"query"`
	Items       []domain.Book `json:"items"`
	Count       int           `json:"count"`
	Page        int           `json:"page"`
	TotalPages  int           `json:"totalPages"`
	HasNext     bool          `json:"hasNext"`
	HasPrevious bool          `json:"hasPrevious"`
	Pages       []int         `json:"pages"`
	Error       string        `json:"error,omitempty"`
}

// Books is the JSON form of the book listing, for client-side paging.
func (h *APIHandler) Books(c *fiber.Ctx) error {
	sid := ensureSID(c)
	v := queryValues(c)
	if key, ok := checkQuery(v); !ok {
		log.Security(c, "validation.fail", map[string]any{"field": key})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + key})
	}
	ctrl := h.Catalog.Books()
	defer ctrl.Close()
	ctrl.InitializeFromURL(v)
	loadReference(c, h.Catalog, ctrl)

	res, err := ctrl.Fetch(c.UserContext())
	if err != nil {
		return err
	}
	out := listingJSON{
		Query:       ctrl.URL(),
		Items:       h.Likes.Decorate(c.UserContext(), sid, res.Items),
		Count:       res.Pagination.Total,
		Page:        res.Pagination.Page,
		TotalPages:  res.Pagination.TotalPages(),
		HasNext:     res.Pagination.HasNext(),
		HasPrevious: res.Pagination.HasPrevious(),
		Pages:       res.Pagination.Window(7),
	}
	if res.Err != nil {
		log.Error(c, "api.books.fail", res.Err, nil)
		out.Error = "could not load books"
		return c.Status(fiber.StatusBadGateway).JSON(out)
	}
	return c.JSON(out)
}
