// Package domain defines the shared list entities, the transactional
// persistence contracts and the error taxonomy used across layers.
package domain

import (
	"html"
	"strings"
)

// UnknownAuthor is recorded as AddedBy when the caller supplies no name.
const UnknownAuthor = "Unknown"

// Item is one entry on the shared list.
type Item struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	AddedBy   string `json:"addedBy"`
	AddedAt   int64  `json:"addedAt"`
}

// List is the full ordered collection of items. Insertion order is the
// persisted order.
type List []Item

// Clone returns a deep copy that is never nil, so an empty list encodes as [].
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Find returns the item with the given id.
func (l List) Find(id int64) (Item, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Item{}, false
}

// Index returns the position of the item with the given id, or -1.
func (l List) Index(id int64) int {
	for i, it := range l {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// MaxID returns the largest id present, or zero for an empty list.
func (l List) MaxID() int64 {
	var max int64
	for _, it := range l {
		if it.ID > max {
			max = it.ID
		}
	}
	return max
}

// Sanitize escapes s for safe embedding in HTML output.
func Sanitize(s string) string {
	return html.EscapeString(s)
}

// NormalizeAuthor sanitizes a display name, substituting UnknownAuthor when blank.
func NormalizeAuthor(name string) string {
	if strings.TrimSpace(name) == "" {
		return UnknownAuthor
	}
	return Sanitize(name)
}

// ValidateText rejects text that is empty once surrounding whitespace is removed.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ValidationError{Field: "text", Reason: "must not be empty"}
	}
	return nil
}
