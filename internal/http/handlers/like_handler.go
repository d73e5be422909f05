package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/likes"
	"bookbazaar/internal/log"
	"bookbazaar/internal/services"
	"bookbazaar/internal/validate"
)

type LikeHandler struct {
	Catalog *services.CatalogService
	Likes   *services.LikeService
	Auth    *services.AuthService
}

type likeResponse struct {
	Liked  bool   `json:"liked"`
	Count  int    `json:"count"`
	Notice string `json:"notice,omitempty"`
	SignIn bool   `json:"signIn,omitempty"`
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// back returns the local path and query of the Referer. Browsers send it
// absolute, so same-host URLs are cut down to path+query; other hosts fall
// back.
func back(c *fiber.Ctx, fallback string) string {
	ref := c.Get(fiber.HeaderReferer)
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || !strings.EqualFold(u.Host, c.Hostname()) {
		return fallback
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fallback
	}
	target := u.EscapedPath()
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

// respond maps a toggle outcome to JSON for scripts or a redirect for plain
// form posts. None of the outcomes is a server error.
func (h *LikeHandler) respond(c *fiber.Ctx, kind likes.Kind, id int, st domain.LikeState, err error, fallback string) error {
	res := likeResponse{Liked: st.Liked, Count: st.Count}
	status := fiber.StatusOK
	var terr *likes.ToggleError
	switch {
	case err == nil:
		log.Audit(c, "like."+string(kind)+".toggle", map[string]any{"id": id, "liked": st.Liked})
	case errors.Is(err, likes.ErrNotAuthenticated):
		res.Notice, res.SignIn = "Please sign in to like.", true
		if !wantsJSON(c) {
			return c.Redirect("/login")
		}
	case errors.Is(err, likes.ErrToggleInFlight):
		res.Notice = "Still saving your last click."
		status = fiber.StatusConflict
	case errors.As(err, &terr):
		log.Error(c, "like."+string(kind)+".toggle.fail", terr.Err, map[string]any{"id": id})
		res.Notice = "Could not update like. Please try again."
		status = fiber.StatusBadGateway
	default:
		log.Error(c, "like."+string(kind)+".toggle.fail", err, map[string]any{"id": id})
		res.Notice = "Could not update like. Please try again."
		status = fiber.StatusBadGateway
	}
	if wantsJSON(c) {
		return c.Status(status).JSON(res)
	}
	return c.Redirect(back(c, fallback))
}

// authorize reports whether the user may like. AttachUser has already put
// their token on the request context.
func (h *LikeHandler) authorize(c *fiber.Ctx) bool {
	return h.Auth.Authenticated(currentUser(c))
}

// ToggleBook handles a like click on a book. The form carries the state the
// page displayed; a cached state for the session takes precedence.
func (h *LikeHandler) ToggleBook(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This book is no longer available")
	}
	shown := domain.LikeState{
		Liked: c.FormValue("liked") == "true",
		Count: validate.Count(c.FormValue("count")),
	}
	authed := h.authorize(c)
	st, err := h.Likes.ToggleBook(c.UserContext(), sid, id, shown, authed)
	return h.respond(c, likes.KindBook, id, st, err, "/books/"+c.Params("id"))
}

// ToggleComment handles a like click on a comment or reply of a book.
// parent scopes the lookup to that comment's replies.
func (h *LikeHandler) ToggleComment(c *fiber.Ctx) error {
	sid := ensureSID(c)
	bookID, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This book is no longer available")
	}
	cid, ok := validate.ID(c.Params("cid"))
	if !ok {
		return notFound(c, "This comment is no longer available")
	}
	parent := 0
	if p := c.FormValue("parent"); p != "" {
		if parent, ok = validate.ID(p); !ok {
			return c.Status(fiber.StatusBadRequest).SendString("invalid parent")
		}
	}
	authed := h.authorize(c)
	comments, err := h.Catalog.Comments(c.UserContext(), bookID)
	if err != nil {
		return h.respond(c, likes.KindComment, cid, domain.LikeState{}, err, "/books/"+c.Params("id"))
	}
	st, err := h.Likes.Thread(c.UserContext(), sid, comments).Toggle(c.UserContext(), cid, parent, authed)
	if errors.Is(err, likes.ErrCommentNotFound) {
		return notFound(c, "This comment is no longer available")
	}
	return h.respond(c, likes.KindComment, cid, st, err, "/books/"+c.Params("id"))
}
