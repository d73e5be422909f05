package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reQ        = regexp.MustCompile(`^[\p{L}\p{N} _'&.,:!?-]{1,100}$`)
	reName     = regexp.MustCompile(`^[\p{L}\p{N} '&.,()/-]{1,60}$`)
	reUser     = regexp.MustCompile(`^[A-Za-z0-9_.@+-]{3,40}$`)
	reNumber   = regexp.MustCompile(`^[0-9]{1,9}(\.[0-9]{1,2})?$`)
	reOrdering = regexp.MustCompile(`^-?(price|created_at|rating|title|like_count)$`)
)

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return s, reQ.MatchString(s)
}

// ID validates a positive numeric resource id (book, shop, comment).
func ID(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Page parses a page number, defaulting to 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 10000 {
		return 10000
	}
	return n
}

// Count parses a displayed like count; bad input reads as 0.
func Count(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Name validates a category, region or district given by name or id.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reName.MatchString(s)
}

func oneOf(s string, allowed ...string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, a := range allowed {
		if s == a {
			return s, true
		}
	}
	return "", false
}

// Filter validates one listing filter value by key. An empty value is
// valid for every key and means unset.
func Filter(key, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", true
	}
	switch key {
	case "category", "subcategory", "region", "district":
		return Name(value)
	case "cover_type":
		return oneOf(value, "hard", "soft")
	case "is_used":
		return oneOf(value, "true", "false")
	case "type":
		return oneOf(value, "seller", "exchange", "gift")
	case "shop":
		if _, ok := ID(value); ok {
			return value, true
		}
		return "", false
	case "price_min", "price_max":
		return value, reNumber.MatchString(value)
	case "rating_min", "rating_max":
		f, err := strconv.ParseFloat(value, 64)
		return value, err == nil && f >= 0 && f <= 5
	case "ordering":
		return value, reOrdering.MatchString(value)
	}
	return "", false
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUser.MatchString(s)
}

// Password only enforces a length window; the marketplace API decides
// whether it is right.
func Password(s string) bool {
	l := len(s)
	return l >= 4 && l <= 128
}
