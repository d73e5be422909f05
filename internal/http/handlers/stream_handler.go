package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookbazaar/internal/events"
	"bookbazaar/internal/likes"
	"bookbazaar/internal/log"
)

// StreamHandler pushes confirmed like changes of the caller's session to
// other open tabs as server-sent events. Delivery is best effort.
type StreamHandler struct {
	Broker    *events.Broker
	KeepAlive time.Duration
}

// Frame encodes ev as an SSE frame when it belongs to one of namespaces.
func Frame(ev events.Event, namespaces ...string) ([]byte, bool) {
	lc, ok := ev.Data.(events.LikeChanged)
	if !ok || !slices.Contains(namespaces, lc.Namespace) {
		return nil, false
	}
	data, err := json.Marshal(lc)
	if err != nil {
		return nil, false
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Topic, data)), true
}

func (h *StreamHandler) Likes(c *fiber.Ctx) error {
	sid := ensureSID(c)
	namespaces := []string{likes.Namespace(likes.KindBook, sid), likes.Namespace(likes.KindComment, sid)}
	ch, cancel := h.Broker.Subscribe(events.BookLiked, events.BookUnliked, events.CommentLiked, events.CommentUnliked)
	log.Info(c, "likes.stream.open", nil)

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		tick := time.NewTicker(keepAlive)
		defer tick.Stop()

		if _, err := w.WriteString(": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				frame, mine := Frame(ev, namespaces...)
				if !mine {
					continue
				}
				_, _ = w.Write(frame)
			case <-tick.C:
				_, _ = w.WriteString(": ping\n\n")
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
