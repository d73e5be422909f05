package services_test

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeMarket is an in-process stand-in for the marketplace API.
type fakeMarket struct {
	mu         sync.Mutex
	books      []domain.Book
	comments   map[int][]domain.Comment
	categories []domain.Category
	regions    []domain.Region
	shops      []domain.Shop
	liked      map[int]bool
	params     []url.Values
	refCalls   int
	refErr     error
	loginErr   error
	login      marketapi.LoginResult
	onGetBook  func(id int)
}

func (f *fakeMarket) ListBooks(_ context.Context, params url.Values) (marketapi.Page[domain.Book], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	return marketapi.Page[domain.Book]{Items: f.books, Count: len(f.books)}, nil
}

func (f *fakeMarket) GetBook(_ context.Context, id int) (domain.Book, error) {
	if f.onGetBook != nil {
		f.onGetBook(id)
	}
	for _, b := range f.books {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Book{}, marketapi.ErrNotFound
}

func (f *fakeMarket) Comments(_ context.Context, bookID int) ([]domain.Comment, error) {
	return f.comments[bookID], nil
}

func (f *fakeMarket) Categories(context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refCalls++
	return f.categories, f.refErr
}

func (f *fakeMarket) Regions(context.Context) ([]domain.Region, error) { return f.regions, f.refErr }

func (f *fakeMarket) Shops(context.Context) ([]domain.Shop, error) { return f.shops, nil }

func (f *fakeMarket) GetShop(_ context.Context, id int) (domain.Shop, error) {
	for _, s := range f.shops {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Shop{}, marketapi.ErrNotFound
}

func (f *fakeMarket) ToggleBookLike(_ context.Context, id int) (marketapi.ToggleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.liked == nil {
		f.liked = map[int]bool{}
	}
	f.liked[id] = !f.liked[id]
	return marketapi.ToggleResult{Success: true, IsLiked: f.liked[id]}, nil
}

func (f *fakeMarket) ToggleCommentLike(ctx context.Context, id int) (marketapi.ToggleResult, error) {
	return f.ToggleBookLike(ctx, -id)
}

func (f *fakeMarket) Login(_ context.Context, username, password string) (marketapi.LoginResult, error) {
	return f.login, f.loginErr
}
