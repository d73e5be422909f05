package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/filters"
	"bookbazaar/internal/latest"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/metrics"
)

// ErrSuperseded means a newer detail load for the same view started
// before this one finished; its result was dropped.
var ErrSuperseded = errors.New("detail load superseded")

type CatalogAPI interface {
	ListBooks(ctx context.Context, params url.Values) (marketapi.Page[domain.Book], error)
	GetBook(ctx context.Context, id int) (domain.Book, error)
	Comments(ctx context.Context, bookID int) ([]domain.Comment, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Regions(ctx context.Context) ([]domain.Region, error)
	Shops(ctx context.Context) ([]domain.Shop, error)
	GetShop(ctx context.Context, id int) (domain.Shop, error)
}

type BookDetail struct {
	Book     domain.Book
	Comments []domain.Comment
}

type CatalogService struct {
	API      CatalogAPI
	PageSize int
	Metrics  *metrics.Recorder
	Logger   *zap.Logger
	RefTTL   time.Duration

	details *latest.Guard

	mu         sync.Mutex
	refLoaded  time.Time
	categories []domain.Category
	regions    []domain.Region
}

func NewCatalogService(api CatalogAPI, pageSize int, rec *metrics.Recorder, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = filters.DefaultPageSize
	}
	return &CatalogService{
		API:      api,
		PageSize: pageSize,
		Metrics:  rec,
		Logger:   logger,
		RefTTL:   5 * time.Minute,
		details:  latest.New(),
	}
}

// Books returns a controller over the server-filtered book listing.
func (s *CatalogService) Books() *filters.Controller[domain.Book] {
	return filters.NewController[domain.Book](s.bookListing("books", 0), s.PageSize,
		filters.WithMetrics(s.Metrics), filters.WithLogger(s.Logger))
}

// ShopBooks is the listing of one shop's page; the shop is always sent.
func (s *CatalogService) ShopBooks(shopID int) *filters.Controller[domain.Book] {
	return filters.NewController[domain.Book](s.bookListing("shop_books", shopID), s.PageSize,
		filters.WithMetrics(s.Metrics), filters.WithLogger(s.Logger))
}

func (s *CatalogService) bookListing(name string, shopID int) filters.ServerFilteredListing[domain.Book] {
	return filters.ServerFilteredListing[domain.Book]{
		ListName: name,
		List: func(ctx context.Context, params url.Values) ([]domain.Book, int, error) {
			if shopID > 0 {
				params.Set("shop", strconv.Itoa(shopID))
			}
			page, err := s.API.ListBooks(ctx, params)
			if err != nil {
				return nil, 0, err
			}
			return page.Items, page.Count, nil
		},
	}
}

// Shops returns a controller over the shops list. The API returns every
// shop at once; filtering and paging happen here.
func (s *CatalogService) Shops() *filters.Controller[domain.Shop] {
	listing := filters.ClientFilteredListing[domain.Shop]{
		ListName: "shops",
		Load:     s.API.Shops,
		Match:    filters.MatchShop,
	}
	return filters.NewController[domain.Shop](listing, s.PageSize,
		filters.WithMetrics(s.Metrics), filters.WithLogger(s.Logger))
}

// Reference returns categories and regions, reloading them after RefTTL.
// A failed reload keeps serving the previous copy.
func (s *CatalogService) Reference(ctx context.Context) ([]domain.Category, []domain.Region, error) {
	s.mu.Lock()
	if !s.refLoaded.IsZero() && time.Since(s.refLoaded) < s.RefTTL {
		cats, regs := s.categories, s.regions
		s.mu.Unlock()
		return cats, regs, nil
	}
	s.mu.Unlock()

	cats, err := s.API.Categories(ctx)
	if err == nil {
		var regs []domain.Region
		regs, err = s.API.Regions(ctx)
		if err == nil {
			s.mu.Lock()
			s.categories, s.regions, s.refLoaded = cats, regs, time.Now()
			s.mu.Unlock()
			return cats, regs, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refLoaded.IsZero() {
		return nil, nil, fmt.Errorf("load reference data: %w", err)
	}
	s.Logger.Warn("reference reload failed, serving previous copy", zap.Error(err))
	return s.categories, s.regions, nil
}

// BookDetail loads a book and its comments for view, one page instance of a
// session. When the same view starts another detail load first, this one
// returns ErrSuperseded. Comments are best effort.
func (s *CatalogService) BookDetail(ctx context.Context, view string, id int) (BookDetail, error) {
	ticket := s.details.Begin("book:" + view)
	defer ticket.Done()
	book, err := s.API.GetBook(ctx, id)
	if err != nil {
		return BookDetail{}, err
	}
	comments, err := s.API.Comments(ctx, id)
	if err != nil {
		s.Logger.Warn("comments load failed", zap.Int("book", id), zap.Error(err))
		comments = nil
	}
	if !ticket.Current() {
		return BookDetail{}, ErrSuperseded
	}
	return BookDetail{Book: book, Comments: comments}, nil
}

func (s *CatalogService) Comments(ctx context.Context, bookID int) ([]domain.Comment, error) {
	return s.API.Comments(ctx, bookID)
}

func (s *CatalogService) Shop(ctx context.Context, id int) (domain.Shop, error) {
	return s.API.GetShop(ctx, id)
}
