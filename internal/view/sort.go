package view

import (
	"bytes"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"sharedlist/pkg/domain"
)

// Dimension names a sort key.
type Dimension string

const (
	SortAlpha  Dimension = "alpha"
	SortRecent Dimension = "recent"
)

// ParseDimension accepts "alpha" or "recent".
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case SortAlpha, SortRecent:
		return Dimension(s), true
	}
	return "", false
}

// Order is a sort dimension plus direction.
type Order struct {
	Dimension  Dimension
	Descending bool
}

// DefaultOrder returns the starting direction for dim: alphabetical sorts
// ascend, recency sorts show the newest item first.
func DefaultOrder(dim Dimension) Order {
	return Order{Dimension: dim, Descending: dim == SortRecent}
}

// Select returns the order after the user picks dim. Picking the active
// dimension flips direction; picking another resets to its default.
func (o Order) Select(dim Dimension) Order {
	if o.Dimension == dim {
		return Order{Dimension: dim, Descending: !o.Descending}
	}
	return DefaultOrder(dim)
}

// Reverse flips the direction without changing the dimension.
func (o Order) Reverse() Order {
	o.Descending = !o.Descending
	return o
}

func (o Order) String() string {
	dir := "asc"
	if o.Descending {
		dir = "desc"
	}
	return string(o.Dimension) + " " + dir
}

// Sort returns a sorted copy of list. Ties break on id so the order is total
// and a descending sort is the exact mirror of the ascending one. Text is
// compared with a case-insensitive collator for tag.
func Sort(list domain.List, order Order, tag language.Tag) domain.List {
	out := list.Clone()
	var less func(a, b domain.Item) bool
	switch order.Dimension {
	case SortAlpha:
		col := collate.New(tag, collate.IgnoreCase)
		var buf collate.Buffer
		keys := make(map[int64][]byte, len(out))
		for _, it := range out {
			keys[it.ID] = append([]byte(nil), col.KeyFromString(&buf, it.Text)...)
			buf.Reset()
		}
		less = func(a, b domain.Item) bool {
			if c := bytes.Compare(keys[a.ID], keys[b.ID]); c != 0 {
				return c < 0
			}
			return a.ID < b.ID
		}
	default:
		less = func(a, b domain.Item) bool {
			if a.AddedAt != b.AddedAt {
				return a.AddedAt < b.AddedAt
			}
			return a.ID < b.ID
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
