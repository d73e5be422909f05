package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/likes"
	"bookbazaar/internal/marketapi"
)

type BookGetter interface {
	GetBook(ctx context.Context, id int) (domain.Book, error)
}

// WishlistService lists the books a session has liked. The session's book
// like cache is the list; there is no separate storage.
type WishlistService struct {
	API    BookGetter
	Likes  *LikeService
	Logger *zap.Logger
}

func NewWishlistService(api BookGetter, likeSvc *LikeService, logger *zap.Logger) *WishlistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WishlistService{API: api, Likes: likeSvc, Logger: logger}
}

// List loads every liked book of sid in id order. Books the API no longer
// has are dropped from the cache. Any other failure skips that book and the
// first such error is returned with the books that did load.
func (s *WishlistService) List(ctx context.Context, sid string) ([]domain.Book, error) {
	cache := s.Likes.Cache(likes.KindBook, sid)
	ids := cache.IDs(ctx)
	out := make([]domain.Book, 0, len(ids))
	var firstErr error
	for _, id := range ids {
		b, err := s.API.GetBook(ctx, id)
		switch {
		case errors.Is(err, marketapi.ErrNotFound):
			if derr := cache.Delete(ctx, id); derr != nil {
				s.Logger.Warn("could not prune liked book", zap.Int("book", id), zap.Error(derr))
			}
			continue
		case err != nil:
			if firstErr == nil {
				firstErr = fmt.Errorf("load liked book %d: %w", id, err)
			}
			continue
		}
		out = append(out, b)
	}
	return s.Likes.Decorate(ctx, sid, out), firstErr
}
