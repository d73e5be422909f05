package filters

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"bookbazaar/internal/domain"
)

// Listing fetches one page of items for a state. total is the number of
// matching items across all pages.
type Listing[T any] interface {
	Name() string
	Fetch(ctx context.Context, s State, pageSize int) (items []T, total int, err error)
}

// ServerFilteredListing sends the criteria to the remote API, which filters
// and pages. Results are used as returned.
type ServerFilteredListing[T any] struct {
	ListName string
	List     func(ctx context.Context, params url.Values) ([]T, int, error)
}

func (l ServerFilteredListing[T]) Name() string { return l.ListName }

func (l ServerFilteredListing[T]) Fetch(ctx context.Context, s State, pageSize int) ([]T, int, error) {
	return l.List(ctx, APIParams(s, pageSize))
}

// ClientFilteredListing loads a single unfiltered batch and filters and
// pages it locally.
type ClientFilteredListing[T any] struct {
	ListName string
	Load     func(ctx context.Context) ([]T, error)
	Match    func(item T, s State) bool
}

func (l ClientFilteredListing[T]) Name() string { return l.ListName }

func (l ClientFilteredListing[T]) Fetch(ctx context.Context, s State, pageSize int) ([]T, int, error) {
	all, err := l.Load(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := make([]T, 0, len(all))
	for _, it := range all {
		if l.Match == nil || l.Match(it, s) {
			matched = append(matched, it)
		}
	}
	if pageSize < 1 {
		return matched, len(matched), nil
	}
	page := s.Page
	if page < 1 {
		page = 1
	}
	from := (page - 1) * pageSize
	if from >= len(matched) {
		return []T{}, len(matched), nil
	}
	to := from + pageSize
	if to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], len(matched), nil
}

// MatchShop is the shops list filter: q against name and description,
// region by name.
func MatchShop(sh domain.Shop, s State) bool {
	if s.Region != "" && !strings.EqualFold(sh.Region, decodeName(s.Region)) {
		return false
	}
	if s.District != "" && !strings.EqualFold(sh.District, decodeName(s.District)) {
		return false
	}
	if s.RatingMin != "" {
		if floor, err := strconv.ParseFloat(s.RatingMin, 64); err == nil && sh.Rating < floor {
			return false
		}
	}
	if q := strings.ToLower(s.Query); q != "" {
		return strings.Contains(strings.ToLower(sh.Name), q) ||
			strings.Contains(strings.ToLower(sh.Description), q)
	}
	return true
}
