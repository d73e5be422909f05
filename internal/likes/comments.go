package likes

import (
	"context"
	"errors"
	"sync"

	"bookbazaar/internal/domain"
)

var ErrCommentNotFound = errors.New("likes: comment not found")

// CommentThread applies the like protocol to one node of a comment tree.
// Only the targeted node is rewritten; siblings keep their values.
type CommentThread struct {
	s     *Syncer
	cache Cache

	mu       sync.Mutex
	comments []domain.Comment
}

// Thread wraps comments as loaded from the API. Cached entries override the
// payload's like fields, as Tracker.Initialize does for single entities.
func (s *Syncer) Thread(ctx context.Context, cache Cache, comments []domain.Comment) *CommentThread {
	return &CommentThread{s: s, cache: cache, comments: overlayCache(ctx, cache, comments)}
}

func overlayCache(ctx context.Context, cache Cache, in []domain.Comment) []domain.Comment {
	if in == nil {
		return nil
	}
	out := make([]domain.Comment, len(in))
	for i, c := range in {
		if st, ok := cache.Get(ctx, c.ID); ok {
			c.IsLiked, c.LikeCount = st.Liked, clampCount(st.Count)
		}
		c.Replies = overlayCache(ctx, cache, c.Replies)
		out[i] = c
	}
	return out
}

// Comments returns a copy of the current tree.
func (th *CommentThread) Comments() []domain.Comment {
	th.mu.Lock()
	defer th.mu.Unlock()
	return cloneComments(th.comments)
}

// Toggle likes or unlikes comment id. parentID scopes the lookup to the
// direct replies of that comment; zero searches the whole tree.
func (th *CommentThread) Toggle(ctx context.Context, id, parentID int, authenticated bool) (domain.LikeState, error) {
	th.mu.Lock()
	node, ok := findComment(th.comments, id, parentID)
	th.mu.Unlock()
	if !ok {
		return domain.LikeState{}, ErrCommentNotFound
	}

	tr := th.s.Track(th.cache, KindComment)
	tr.mu.Lock()
	tr.initialized, tr.id = true, id
	tr.state = domain.LikeState{Liked: node.IsLiked, Count: clampCount(node.LikeCount)}
	tr.mu.Unlock()
	tr.OnChange(func(st domain.LikeState) {
		th.mu.Lock()
		th.comments, _ = setCommentLike(th.comments, id, parentID, st)
		th.mu.Unlock()
	})
	return tr.Toggle(ctx, authenticated)
}

func findComment(list []domain.Comment, id, parentID int) (domain.Comment, bool) {
	if parentID != 0 {
		parent, ok := findComment(list, parentID, 0)
		if !ok {
			return domain.Comment{}, false
		}
		if j := replyIndex(parent.Replies, id); j >= 0 {
			return parent.Replies[j], true
		}
		return domain.Comment{}, false
	}
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
		if found, ok := findComment(c.Replies, id, 0); ok {
			return found, true
		}
	}
	return domain.Comment{}, false
}

// setCommentLike copies only the path down to the target and reports
// whether it found one.
func setCommentLike(list []domain.Comment, id, parentID int, st domain.LikeState) ([]domain.Comment, bool) {
	for i, c := range list {
		switch {
		case parentID == 0 && c.ID == id:
			c.IsLiked, c.LikeCount = st.Liked, st.Count
		case parentID != 0 && c.ID == parentID:
			j := replyIndex(c.Replies, id)
			if j < 0 {
				return list, false
			}
			replies := append([]domain.Comment(nil), c.Replies...)
			replies[j].IsLiked, replies[j].LikeCount = st.Liked, st.Count
			c.Replies = replies
		default:
			replies, ok := setCommentLike(c.Replies, id, parentID, st)
			if !ok {
				continue
			}
			c.Replies = replies
		}
		out := append([]domain.Comment(nil), list...)
		out[i] = c
		return out, true
	}
	return list, false
}

func replyIndex(replies []domain.Comment, id int) int {
	for i, r := range replies {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func cloneComments(in []domain.Comment) []domain.Comment {
	if in == nil {
		return nil
	}
	out := make([]domain.Comment, len(in))
	for i, c := range in {
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}
