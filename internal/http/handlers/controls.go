package handlers

import (
	"net/url"
	"strconv"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/filters"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

// control is one filter widget. Each submits key=<Key>&value=<choice> plus
// the current state as hidden fields to the listing's filter endpoint.
type control struct {
	Key     string
	Label   string
	Value   string
	Options []option
}

type hiddenField struct {
	Name  string
	Value string
}

// hiddenState lists st's set fields, page excluded, in URL order.
func hiddenState(st filters.State) []hiddenField {
	st.Page = 1
	v, _ := url.ParseQuery(filters.Encode(st))
	var out []hiddenField
	for _, k := range append(filters.Keys(), "q") {
		if val := v.Get(k); val != "" {
			out = append(out, hiddenField{Name: k, Value: val})
		}
	}
	return out
}

func choices(current string, pairs ...string) []option {
	opts := []option{{Value: "", Label: "Any", Selected: current == ""}}
	for i := 0; i+1 < len(pairs); i += 2 {
		opts = append(opts, option{Value: pairs[i], Label: pairs[i+1], Selected: current == pairs[i]})
	}
	return opts
}

func bookControls(st filters.State, cats []domain.Category, regs []domain.Region, districts []domain.District) []control {
	var catPairs, subPairs, regPairs, distPairs []string
	for _, c := range cats {
		catPairs = append(catPairs, c.Name, c.Name)
		if c.Name == st.Category || strconv.Itoa(c.ID) == st.Category {
			for _, s := range c.Subcategories {
				subPairs = append(subPairs, s.Name, s.Name)
			}
		}
	}
	for _, r := range regs {
		regPairs = append(regPairs, r.Name, r.Name)
	}
	for _, d := range districts {
		distPairs = append(distPairs, d.Name, d.Name)
	}

	out := []control{
		{Key: "q", Label: "Search", Value: st.Query},
		{Key: "category", Label: "Category", Options: choices(st.Category, catPairs...)},
	}
	if len(subPairs) > 0 {
		out = append(out, control{Key: "subcategory", Label: "Subcategory", Options: choices(st.Subcategory, subPairs...)})
	}
	out = append(out, control{Key: "region", Label: "Region", Options: choices(st.Region, regPairs...)})
	if len(distPairs) > 0 {
		out = append(out, control{Key: "district", Label: "District", Options: choices(st.District, distPairs...)})
	}
	return append(out,
		control{Key: "cover_type", Label: "Cover", Options: choices(st.CoverType, "hard", "Hardcover", "soft", "Paperback")},
		control{Key: "is_used", Label: "Condition", Options: choices(st.IsUsed, "false", "New", "true", "Used")},
		control{Key: "type", Label: "Offer", Options: choices(st.Type, "seller", "For sale", "exchange", "Exchange", "gift", "Gift")},
		control{Key: "price_min", Label: "Min price", Value: st.PriceMin},
		control{Key: "price_max", Label: "Max price", Value: st.PriceMax},
		control{Key: "rating_min", Label: "Min rating", Value: st.RatingMin},
		control{Key: "ordering", Label: "Sort", Options: choices(st.Ordering,
			"-created_at", "Newest", "price", "Price: low to high", "-price", "Price: high to low", "-rating", "Top rated", "-like_count", "Most liked")},
	)
}
