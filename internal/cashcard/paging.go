package cashcard

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sortable card properties.
const (
	PropertyID     = "id"
	PropertyAmount = "amount"
	PropertyOwner  = "owner"
)

// Page size defaults used when no limits are configured.
const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// Order is one sort key.
type Order struct {
	Property  string
	Direction Direction
}

// PageRequest selects a zero-based page of a sorted result set.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// PageLimits bounds the page size accepted from callers.
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

func (l PageLimits) normalized() PageLimits {
	if l.DefaultSize <= 0 {
		l.DefaultSize = DefaultPageSize
	}
	if l.MaxSize <= 0 {
		l.MaxSize = MaxPageSize
	}
	if l.DefaultSize > l.MaxSize {
		l.DefaultSize = l.MaxSize
	}
	return l
}

// Orders returns the effective ordering: the requested keys, or amount
// ascending when none were given, always followed by id ascending unless id
// is already a key. The trailing id key keeps paging stable for equal amounts.
func (p PageRequest) Orders() []Order {
	orders := make([]Order, 0, len(p.Sort)+1)
	orders = append(orders, p.Sort...)
	if len(orders) == 0 {
		orders = append(orders, Order{Property: PropertyAmount, Direction: Asc})
	}
	for _, o := range orders {
		if o.Property == PropertyID {
			return orders
		}
	}
	return append(orders, Order{Property: PropertyID, Direction: Asc})
}

// Offset returns the number of rows to skip, saturating instead of overflowing.
func (p PageRequest) Offset() int64 {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if int64(p.Page) > math.MaxInt64/int64(p.Size) {
		return math.MaxInt64
	}
	return int64(p.Page) * int64(p.Size)
}

// ParsePageRequest reads page, size and sort query parameters. Page and size
// are coerced rather than rejected: a negative or malformed page becomes 0, a
// malformed or non-positive size becomes the default and an oversized one is
// clamped. Sort values have the form "prop[,prop...][,asc|desc]" and may
// repeat; unknown properties yield ErrInvalidSort.
func ParsePageRequest(query url.Values, limits PageLimits) (PageRequest, error) {
	limits = limits.normalized()
	req := PageRequest{Page: 0, Size: limits.DefaultSize}

	if page, err := strconv.Atoi(strings.TrimSpace(query.Get("page"))); err == nil && page > 0 {
		req.Page = page
	}
	if size, err := strconv.Atoi(strings.TrimSpace(query.Get("size"))); err == nil && size > 0 {
		req.Size = min(size, limits.MaxSize)
	}

	for _, raw := range query["sort"] {
		orders, err := parseSort(raw)
		if err != nil {
			return PageRequest{}, err
		}
		req.Sort = append(req.Sort, orders...)
	}
	return req, nil
}

func parseSort(raw string) ([]Order, error) {
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	dir := Asc
	if last := Direction(parts[len(parts)-1]); last == Asc || last == Desc {
		dir = last
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q has no property", ErrInvalidSort, raw)
	}

	orders := make([]Order, 0, len(parts))
	for _, prop := range parts {
		switch prop {
		case PropertyID, PropertyAmount, PropertyOwner:
			orders = append(orders, Order{Property: prop, Direction: dir})
		default:
			return nil, fmt.Errorf("%w: unknown property %q", ErrInvalidSort, prop)
		}
	}
	return orders, nil
}
