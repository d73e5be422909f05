package filters

import (
	"net/url"
	"strconv"
	"strings"

	"bookbazaar/internal/domain"
)

// Resolution is the outcome of mapping a filter value to a reference id:
// either Resolved(id) or Unresolved(name).
type Resolution struct {
	id       int
	name     string
	resolved bool
}

func Resolved(id int) Resolution { return Resolution{id: id, resolved: true} }
func Unresolved(name string) Resolution { return Resolution{name: name} }
func (r Resolution) IsResolved() bool { return r.resolved }
func (r Resolution) ID() (int, bool) { return r.id, r.resolved }
func (r Resolution) Name() string { return r.name }

// Value is what goes back into Criteria: the id, or the name unchanged.
func (r Resolution) Value() string {
	if r.resolved {
		return strconv.Itoa(r.id)
	}
	return r.name
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func decodeName(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}

// ResolveCategory maps value against list. Numeric values are already ids.
// Names match case-sensitively after URL decoding.
func ResolveCategory(value string, list []domain.Category) Resolution {
	if n, err := strconv.Atoi(value); err == nil {
		return Resolved(n)
	}
	name := decodeName(value)
	for _, c := range list {
		if c.Name == name {
			return Resolved(c.ID)
		}
	}
	return Unresolved(value)
}

// ResolveNamesToIDs replaces category and subcategory names with ids. The
// bool is true only when a value actually changed, so callers can skip the
// update (and the refetch it would trigger) otherwise.
func ResolveNamesToIDs(c Criteria, categories []domain.Category) (Criteria, bool) {
	if len(categories) == 0 {
		return c, false
	}
	out := c
	if c.Category != "" && !isNumeric(c.Category) {
		out.Category = ResolveCategory(c.Category, categories).Value()
	}
	if c.Subcategory != "" && !isNumeric(c.Subcategory) {
		out.Subcategory = ResolveCategory(c.Subcategory, subcategoriesOf(out.Category, categories)).Value()
	}
	return out, out != c
}

// subcategoriesOf returns the children of the given category id, or all
// subcategories when the parent is unset or unknown.
func subcategoriesOf(parent string, categories []domain.Category) []domain.Category {
	if id, err := strconv.Atoi(parent); err == nil {
		for _, c := range categories {
			if c.ID == id {
				return c.Subcategories
			}
		}
	}
	var all []domain.Category
	for _, c := range categories {
		all = append(all, c.Subcategories...)
	}
	return all
}

// CategoryName maps a top-level category id back to its display name for
// URLs. Unknown ids and names are returned as given.
func CategoryName(value string, categories []domain.Category) string {
	id, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return value
}

// SubcategoryName is CategoryName for subcategories. Subcategory ids are
// their own sequence and may equal a category id, so only subcategories are
// searched: the children of parent first, then every other one.
func SubcategoryName(value, parent string, categories []domain.Category) string {
	id, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	for _, s := range subcategoriesOf(parent, categories) {
		if s.ID == id {
			return s.Name
		}
	}
	for _, c := range categories {
		for _, s := range c.Subcategories {
			if s.ID == id {
				return s.Name
			}
		}
	}
	return value
}

// DistrictsFor returns the selectable districts of region, matched by name
// (case-insensitive) or id.
func DistrictsFor(region string, regions []domain.Region) []domain.District {
	if region == "" {
		return nil
	}
	name := decodeName(region)
	for _, r := range regions {
		if strings.EqualFold(r.Name, name) || strconv.Itoa(r.ID) == region {
			return r.Districts
		}
	}
	return nil
}
