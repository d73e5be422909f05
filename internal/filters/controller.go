package filters

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/latest"
	"bookbazaar/internal/metrics"
)

// ErrStale is returned by Fetch when a newer fetch started, or the
// controller was closed, before the response arrived. The result was
// discarded.
var ErrStale = errors.New("filters: stale listing response discarded")

// Result is one fetched page. A failed fetch yields no items and Err set;
// the page stays renderable.
type Result[T any] struct {
	State      State
	Items      []T
	Pagination Pagination
	Err        error
}

// Controller owns the filter state of one listing view.
type Controller[T any] struct {
	listing  Listing[T]
	pageSize int
	guard    *latest.Guard
	metrics  *metrics.Recorder
	logger   *zap.Logger

	mu         sync.Mutex
	state      State
	total      int
	categories []domain.Category
	regions    []domain.Region
	districts  []domain.District
}

type Option func(*options)

type options struct {
	metrics *metrics.Recorder
	logger  *zap.Logger
}

func WithMetrics(r *metrics.Recorder) Option { return func(o *options) { o.metrics = r } }
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

func NewController[T any](listing Listing[T], pageSize int, opts ...Option) *Controller[T] {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Controller[T]{
		listing:  listing,
		pageSize: pageSize,
		guard:    latest.New(),
		metrics:  o.metrics,
		logger:   o.logger.With(zap.String("listing", listing.Name())),
		state:    State{Page: 1},
	}
}

// fromURL parses values and resolves category names if reference data is
// already loaded.
func (c *Controller[T]) fromURL(v url.Values) State {
	next := FromValues(v)
	next.Criteria, _ = ResolveNamesToIDs(next.Criteria, c.categories)
	return next
}

// InitializeFromURL replaces the state with the one encoded in v.
func (c *Controller[T]) InitializeFromURL(v url.Values) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.fromURL(v)
	c.districts = DistrictsFor(c.state.Region, c.regions)
	return c.state
}

// SyncFromURL adopts an externally changed URL. The state is replaced only
// when the parsed state differs; the bool reports whether it did.
func (c *Controller[T]) SyncFromURL(v url.Values) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.fromURL(v)
	if next == c.state {
		return false
	}
	c.state = next
	c.districts = DistrictsFor(c.state.Region, c.regions)
	return true
}

// SetReference installs the categories and regions datasets and resolves
// any names held in the criteria. It reports whether the criteria changed.
func (c *Controller[T]) SetReference(categories []domain.Category, regions []domain.Region) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = categories
	c.regions = regions
	c.districts = DistrictsFor(c.state.Region, regions)
	resolved, changed := ResolveNamesToIDs(c.state.Criteria, categories)
	if changed {
		c.state.Criteria = resolved
	}
	return changed
}

// SetFilter sets one criterion and resets to page 1. Setting region clears
// district and refreshes the selectable districts; changing category clears
// subcategory.
func (c *Controller[T]) SetFilter(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.state.Criteria.With(key, value)
	if err != nil {
		return err
	}
	if key == "region" {
		next.District = ""
		c.districts = DistrictsFor(next.Region, c.regions)
	}
	if key == "category" || key == "subcategory" {
		next, _ = ResolveNamesToIDs(next, c.categories)
	}
	if key == "category" && next.Category != c.state.Category {
		next.Subcategory = ""
	}
	c.state.Criteria = next
	c.state.Page = 1
	return nil
}

func (c *Controller[T]) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = q
	c.state.Page = 1
}

func (c *Controller[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.state.Page = n
	c.mu.Unlock()
}

// ClearFilters drops every criterion and the query, and returns to page 1.
// URL() is then empty.
func (c *Controller[T]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Page: 1}
	c.districts = nil
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T]) Districts() []domain.District {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.districts
}

// URLState is the current state with category and subcategory written as
// names where known, the form used in links.
func (c *Controller[T]) URLState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Category = CategoryName(s.Category, c.categories)
	s.Subcategory = SubcategoryName(s.Subcategory, c.state.Category, c.categories)
	return s
}

// URL is the query string for the current state.
func (c *Controller[T]) URL() string { return Encode(c.URLState()) }

func (c *Controller[T]) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pagination{Page: c.state.Page, Total: c.total, PageSize: c.pageSize}
}

// Fetch loads the page for the current state. Only the latest call may
// commit; an earlier one that finishes later gets ErrStale. Remote failures
// are reported in Result.Err, not as an error.
func (c *Controller[T]) Fetch(ctx context.Context) (Result[T], error) {
	ticket := c.guard.Begin("listing")
	st := c.State()

	start := time.Now()
	items, total, err := c.listing.Fetch(ctx, st, c.pageSize)
	c.metrics.ListingFetch(c.listing.Name(), time.Since(start), err)

	if !ticket.Current() {
		return Result[T]{}, ErrStale
	}
	if err != nil {
		c.logger.Warn("listing fetch failed", zap.Error(err))
		items, total = []T{}, 0
	}
	if items == nil {
		items = []T{}
	}

	c.mu.Lock()
	c.total = total
	c.mu.Unlock()
	return Result[T]{
		State:      st,
		Items:      items,
		Pagination: Pagination{Page: st.Page, Total: total, PageSize: c.pageSize},
		Err:        err,
	}, nil
}

// Close discards any fetch still in flight.
func (c *Controller[T]) Close() { c.guard.Close() }
