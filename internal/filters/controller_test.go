package filters_test

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/filters"
)

type recordingListing struct {
	calls  []url.Values
	items  []domain.Book
	total  int
	err    error
	before func(n int)
}

func (r *recordingListing) listing() filters.ServerFilteredListing[domain.Book] {
	return filters.ServerFilteredListing[domain.Book]{
		ListName: "books",
		List: func(ctx context.Context, params url.Values) ([]domain.Book, int, error) {
			r.calls = append(r.calls, params)
			if r.before != nil {
				r.before(len(r.calls))
			}
			return r.items, r.total, r.err
		},
	}
}

func TestControllerSetRegionClearsDistrict(t *testing.T) {
	src := &recordingListing{}
	c := filters.NewController[domain.Book](src.listing(), 12)
	c.InitializeFromURL(url.Values{"region": {"Tashkent"}, "district": {"Chilonzor"}, "page": {"3"}})
	c.SetReference(categories, regions)
	require.Len(t, c.Districts(), 2)

	require.NoError(t, c.SetFilter("region", "Samarqand"))
	st := c.State()
	assert.Equal(t, "Samarqand", st.Region)
	assert.Empty(t, st.District)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, []domain.District{{ID: 3, Name: "Urgut"}}, c.Districts())
	assert.Equal(t, "region=Samarqand", c.URL())
}

func TestControllerSetFilterResetsPage(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	c.SetPage(4)
	require.NoError(t, c.SetFilter("cover_type", "hard"))
	assert.Equal(t, 1, c.State().Page)
	assert.Error(t, c.SetFilter("nope", "x"))
}

func TestControllerWritesCategoryNamesToURL(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	c.InitializeFromURL(url.Values{"category": {"Fiction"}, "subcategory": {"Fantasy"}})

	assert.True(t, c.SetReference(categories, regions))
	assert.Equal(t, "1", c.State().Category)
	assert.Equal(t, "11", c.State().Subcategory)
	assert.Equal(t, "category=Fiction&subcategory=Fantasy", c.URL())

	assert.False(t, c.SetReference(categories, regions), "second load of the same dataset changes nothing")
}

func TestControllerURLRoundTripWithOverlappingIDs(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	c.InitializeFromURL(url.Values{"category": {"Fiction"}, "subcategory": {"Fantasy"}})
	c.SetReference(overlapping, regions)
	require.Equal(t, "1", c.State().Category)
	require.Equal(t, "1", c.State().Subcategory)
	assert.Equal(t, "category=Fiction&subcategory=Fantasy", c.URL())

	reloaded := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	v, err := url.ParseQuery(c.URL())
	require.NoError(t, err)
	reloaded.InitializeFromURL(v)
	reloaded.SetReference(overlapping, regions)
	assert.Equal(t, c.State(), reloaded.State())
}

func TestControllerCategoryChangeClearsSubcategory(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	c.InitializeFromURL(url.Values{"category": {"Fiction"}, "subcategory": {"Fantasy"}})
	c.SetReference(categories, regions)

	require.NoError(t, c.SetFilter("category", "Fiction"))
	assert.Equal(t, "11", c.State().Subcategory, "same category keeps the subcategory")

	require.NoError(t, c.SetFilter("category", "Science"))
	assert.Equal(t, "2", c.State().Category)
	assert.Empty(t, c.State().Subcategory)
	assert.Equal(t, "category=Science", c.URL())
}

func TestControllerURLFallsBackToRawID(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	require.NoError(t, c.SetFilter("category", "42"))
	assert.Equal(t, "category=42", c.URL())
}

func TestControllerSyncFromURLOnlyWhenDifferent(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	c.SetReference(categories, regions)
	c.InitializeFromURL(url.Values{"category": {"Fiction"}, "q": {"dune"}})

	assert.False(t, c.SyncFromURL(url.Values{"category": {"Fiction"}, "q": {"dune"}}))
	assert.False(t, c.SyncFromURL(url.Values{"category": {"1"}, "q": {"dune"}}), "name and id of the same category are equal")
	assert.True(t, c.SyncFromURL(url.Values{"category": {"Science"}}))
	assert.Equal(t, "2", c.State().Category)
}

func TestControllerClearFilters(t *testing.T) {
	c := filters.NewController[domain.Book]((&recordingListing{}).listing(), 12)
	c.InitializeFromURL(url.Values{"region": {"Tashkent"}, "q": {"x"}, "page": {"5"}})
	c.ClearFilters()
	assert.Equal(t, filters.State{Page: 1}, c.State())
	assert.Equal(t, "", c.URL())
}

func TestControllerFetch(t *testing.T) {
	src := &recordingListing{items: []domain.Book{{ID: 1}, {ID: 2}}, total: 37}
	c := filters.NewController[domain.Book](src.listing(), 12)
	c.InitializeFromURL(url.Values{"region": {"Tashkent"}, "price_min": {"10000"}})
	c.SetPage(2)

	res, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, filters.Pagination{Page: 2, Total: 37, PageSize: 12}, res.Pagination)
	assert.True(t, res.Pagination.HasNext())
	assert.True(t, res.Pagination.HasPrevious())
	assert.Equal(t, res.Pagination, c.Pagination())

	require.Len(t, src.calls, 1)
	assert.Equal(t, url.Values{
		"region": {"Tashkent"}, "price_min": {"10000"}, "limit": {"12"}, "offset": {"12"},
	}, src.calls[0])
}

func TestControllerFetchFailureIsEmptyPage(t *testing.T) {
	src := &recordingListing{err: errors.New("503")}
	c := filters.NewController[domain.Book](src.listing(), 12)

	res, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualError(t, res.Err, "503")
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Pagination.Total)
}

func TestControllerDiscardsStaleFetch(t *testing.T) {
	src := &recordingListing{items: []domain.Book{{ID: 1}}, total: 1}
	c := filters.NewController[domain.Book](src.listing(), 12)

	// The first fetch is overtaken by a second one before it returns.
	src.before = func(n int) {
		if n == 1 {
			_, err := c.Fetch(context.Background())
			assert.NoError(t, err)
		}
	}
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, filters.ErrStale)
	assert.Len(t, src.calls, 2)
}

func TestControllerCloseDiscardsInFlight(t *testing.T) {
	src := &recordingListing{}
	c := filters.NewController[domain.Book](src.listing(), 12)
	src.before = func(int) { c.Close() }
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, filters.ErrStale)
}

func TestClientFilteredListing(t *testing.T) {
	shops := make([]domain.Shop, 0, 30)
	for i := 1; i <= 30; i++ {
		region := "Tashkent"
		if i%3 == 0 {
			region = "Samarqand"
		}
		shops = append(shops, domain.Shop{ID: i, Name: "Shop " + strconv.Itoa(i), Region: region})
	}
	loads := 0
	listing := filters.ClientFilteredListing[domain.Shop]{
		ListName: "shops",
		Load: func(ctx context.Context) ([]domain.Shop, error) {
			loads++
			return shops, nil
		},
		Match: filters.MatchShop,
	}
	c := filters.NewController[domain.Shop](listing, 12)
	c.InitializeFromURL(url.Values{"region": {"Tashkent"}, "page": {"2"}})

	res, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, res.Pagination.Total)
	assert.Len(t, res.Items, 8)
	assert.Equal(t, 1, loads)
	for _, s := range res.Items {
		assert.Equal(t, "Tashkent", s.Region)
	}

	c.SetQuery("shop 2")
	res, err = c.Fetch(context.Background())
	require.NoError(t, err)
	// 2, 20, 22, 23, 25, 26, 28, 29 are in Tashkent; 21, 24, 27 are not.
	assert.Equal(t, 8, res.Pagination.Total)
}

func TestMatchShop(t *testing.T) {
	sh := domain.Shop{Name: "Kitob Olami", Description: "Used books", Region: "Tashkent", Rating: 4.2}
	assert.True(t, filters.MatchShop(sh, filters.State{Query: "olami"}))
	assert.True(t, filters.MatchShop(sh, filters.State{Query: "used"}))
	assert.False(t, filters.MatchShop(sh, filters.State{Criteria: filters.Criteria{Region: "Samarqand"}}))
	assert.False(t, filters.MatchShop(sh, filters.State{Criteria: filters.Criteria{RatingMin: "4.5"}}))
}
