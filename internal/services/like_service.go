package services

import (
	"context"

	"go.uber.org/zap"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/likes"
	"bookbazaar/internal/marketapi"
)

type LikeAPI interface {
	ToggleBookLike(ctx context.Context, id int) (marketapi.ToggleResult, error)
	ToggleCommentLike(ctx context.Context, id int) (marketapi.ToggleResult, error)
}

// MarketToggler adapts the marketplace like endpoints to likes.Toggler.
func MarketToggler(api LikeAPI) likes.Toggler {
	return likes.TogglerFunc(func(ctx context.Context, kind likes.Kind, id int) (bool, error) {
		var (
			res marketapi.ToggleResult
			err error
		)
		if kind == likes.KindComment {
			res, err = api.ToggleCommentLike(ctx, id)
		} else {
			res, err = api.ToggleBookLike(ctx, id)
		}
		if err != nil {
			return false, err
		}
		return res.IsLiked, nil
	})
}

// LikeService binds the like protocol to browser sessions: each session has
// its own persisted book and comment caches.
type LikeService struct {
	Syncer *likes.Syncer
	Store  likes.BlobStore
	Logger *zap.Logger
}

func NewLikeService(syncer *likes.Syncer, store likes.BlobStore, logger *zap.Logger) *LikeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikeService{Syncer: syncer, Store: store, Logger: logger}
}

func (s *LikeService) Cache(kind likes.Kind, sid string) likes.Cache {
	ns := likes.Namespace(kind, sid)
	if s.Store == nil {
		return likes.NewMemoryCache(ns)
	}
	return likes.NewPersistedCache(s.Store, ns, s.Logger)
}

// Decorate overlays the session's cached like states on books as they came
// from the API.
func (s *LikeService) Decorate(ctx context.Context, sid string, books []domain.Book) []domain.Book {
	cache := s.Cache(likes.KindBook, sid)
	out := make([]domain.Book, len(books))
	for i, b := range books {
		st := s.Syncer.Track(cache, likes.KindBook).Initialize(ctx, b.ID, b.IsLiked, b.LikeCount)
		b.IsLiked, b.LikeCount = st.Liked, st.Count
		out[i] = b
	}
	return out
}

// ToggleBook runs one toggle for the view that showed shown.
func (s *LikeService) ToggleBook(ctx context.Context, sid string, id int, shown domain.LikeState, authenticated bool) (domain.LikeState, error) {
	tr := s.Syncer.Track(s.Cache(likes.KindBook, sid), likes.KindBook)
	tr.Initialize(ctx, id, shown.Liked, shown.Count)
	return tr.Toggle(ctx, authenticated)
}

// Thread wraps a loaded comment tree with the session's comment cache.
func (s *LikeService) Thread(ctx context.Context, sid string, comments []domain.Comment) *likes.CommentThread {
	return s.Syncer.Thread(ctx, s.Cache(likes.KindComment, sid), comments)
}
