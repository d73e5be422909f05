// Package filters keeps a listing page's filter criteria, its URL query
// string and the remote API parameters in agreement, and drives paged
// fetches through a Listing strategy.
package filters

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var ErrUnknownFilter = errors.New("filters: unknown filter key")

// Criteria is the filter record of a listing page. Every field is a string;
// "" means unset and is never written to a URL or an API request.
// Category and Subcategory hold ids once resolved, names before that.
type Criteria struct {
	Category    string
	Subcategory string
	Region      string
	District    string
	CoverType   string
	IsUsed      string
	Type        string
	Shop        string
	PriceMin    string
	PriceMax    string
	RatingMin   string
	RatingMax   string
	Ordering    string
}

// State is everything mirrored into the URL.
type State struct {
	Criteria
	Query string
	Page  int
}

type field struct {
	key string
	ptr func(*Criteria) *string
}

// fields fixes the order keys are written in.
var fields = []field{
	{"category", func(c *Criteria) *string { return &c.Category }},
	{"subcategory", func(c *Criteria) *string { return &c.Subcategory }},
	{"region", func(c *Criteria) *string { return &c.Region }},
	{"district", func(c *Criteria) *string { return &c.District }},
	{"cover_type", func(c *Criteria) *string { return &c.CoverType }},
	{"is_used", func(c *Criteria) *string { return &c.IsUsed }},
	{"type", func(c *Criteria) *string { return &c.Type }},
	{"shop", func(c *Criteria) *string { return &c.Shop }},
	{"price_min", func(c *Criteria) *string { return &c.PriceMin }},
	{"price_max", func(c *Criteria) *string { return &c.PriceMax }},
	{"rating_min", func(c *Criteria) *string { return &c.RatingMin }},
	{"rating_max", func(c *Criteria) *string { return &c.RatingMax }},
	{"ordering", func(c *Criteria) *string { return &c.Ordering }},
}

// Keys lists the recognized filter keys in URL order.
func Keys() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.key
	}
	return out
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Get returns the value for a filter key, "" when unset or unknown.
func (c Criteria) Get(key string) string {
	if f, ok := lookup(key); ok {
		return *f.ptr(&c)
	}
	return ""
}

// With returns a copy of c with key set to value.
func (c Criteria) With(key, value string) (Criteria, error) {
	f, ok := lookup(key)
	if !ok {
		return c, ErrUnknownFilter
	}
	*f.ptr(&c) = strings.TrimSpace(value)
	return c, nil
}

// IsZero reports whether no filter is set.
func (c Criteria) IsZero() bool { return c == Criteria{} }

// FromValues reads a State from URL query values. Missing keys stay unset
// and a missing or invalid page becomes 1.
func FromValues(v url.Values) State {
	var s State
	for _, f := range fields {
		*f.ptr(&s.Criteria) = strings.TrimSpace(v.Get(f.key))
	}
	s.Query = strings.TrimSpace(v.Get("q"))
	s.Page = 1
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 1 {
		s.Page = n
	}
	return s
}

// Encode writes s as a query string in fixed key order. Unset fields are
// omitted and so is page 1.
func Encode(s State) string {
	var b strings.Builder
	add := func(k, v string) {
		if v == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	for _, f := range fields {
		add(f.key, *f.ptr(&s.Criteria))
	}
	add("q", s.Query)
	if s.Page > 1 {
		add("page", strconv.Itoa(s.Page))
	}
	return b.String()
}

// APIParams builds the listing request. Region and district go out as
// names; the remote API filters those by name.
func APIParams(s State, pageSize int) url.Values {
	v := url.Values{}
	for _, f := range fields {
		if val := *f.ptr(&s.Criteria); val != "" {
			v.Set(f.key, val)
		}
	}
	if s.Query != "" {
		v.Set("search", s.Query)
	}
	page := s.Page
	if page < 1 {
		page = 1
	}
	if pageSize > 0 {
		v.Set("limit", strconv.Itoa(pageSize))
		v.Set("offset", strconv.Itoa((page-1)*pageSize))
	}
	return v
}
