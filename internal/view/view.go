// Package view holds a client's cached copy of the shared list and derives
// what a user sees from it: sort order, time labels, counts and load status.
//
// The cache only ever changes to a list returned by the server. Local edits
// are never applied ahead of the server's answer.
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/language"

	"sharedlist/pkg/domain"
)

// Source performs round-trips against the list store, usually a *client.Client.
type Source interface {
	Read(ctx context.Context) (domain.List, error)
	Add(ctx context.Context, text, addedBy string) (domain.List, error)
	Toggle(ctx context.Context, id int64) (domain.List, error)
	Delete(ctx context.Context, id int64) (domain.List, error)
	ClearAll(ctx context.Context) (domain.List, error)
}

// Status is the presentation state of the cache.
type Status int

const (
	// StatusLoading means no round-trip has completed yet.
	StatusLoading Status = iota
	// StatusReady means the last round-trip succeeded with items.
	StatusReady
	// StatusEmpty means the last round-trip succeeded with an empty list.
	StatusEmpty
	// StatusFailed means the last round-trip failed; the cache is stale, not empty.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Row is one item prepared for display.
type Row struct {
	domain.Item
	Label string
}

// PartialFailureError reports a bulk delete that stopped part way.
type PartialFailureError struct {
	Deleted []int64
	Failed  int64
	Skipped []int64
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("deleted %d item(s), failed on item %d (%d not attempted): %v", len(e.Deleted), e.Failed, len(e.Skipped), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// View is safe for concurrent use. Round-trips are serialized so responses
// are applied in the order requests were made.
type View struct {
	src  Source
	lang language.Tag
	now  func() time.Time

	rt sync.Mutex

	mu     sync.RWMutex
	items  domain.List
	status Status
	err    error
	order  Order
}

// Option configures a View.
type Option func(*View)

// WithLanguage sets the collation language for alphabetical sorting.
func WithLanguage(tag language.Tag) Option {
	return func(v *View) { v.lang = tag }
}

// WithClock overrides the time source used for labels.
func WithClock(now func() time.Time) Option {
	return func(v *View) {
		if now != nil {
			v.now = now
		}
	}
}

// WithOrder sets the initial sort order.
func WithOrder(o Order) Option {
	return func(v *View) { v.order = o }
}

// New returns a view in the loading state over src.
func New(src Source, opts ...Option) *View {
	v := &View{
		src:    src,
		lang:   language.English,
		now:    time.Now,
		items:  domain.List{},
		status: StatusLoading,
		order:  DefaultOrder(SortRecent),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Refresh replaces the cache with the server's list.
func (v *View) Refresh(ctx context.Context) error {
	return v.roundTrip(func() (domain.List, error) { return v.src.Read(ctx) })
}

// Add asks the server to add an item.
func (v *View) Add(ctx context.Context, text, addedBy string) error {
	return v.roundTrip(func() (domain.List, error) { return v.src.Add(ctx, text, addedBy) })
}

// Toggle asks the server to flip an item's completed flag.
func (v *View) Toggle(ctx context.Context, id int64) error {
	return v.roundTrip(func() (domain.List, error) { return v.src.Toggle(ctx, id) })
}

// Delete asks the server to remove an item.
func (v *View) Delete(ctx context.Context, id int64) error {
	return v.roundTrip(func() (domain.List, error) { return v.src.Delete(ctx, id) })
}

// ClearAll empties the list once confirm approves. Nothing is sent when the
// cache is already empty or confirm declines; the bool reports whether the
// server cleared the list.
func (v *View) ClearAll(ctx context.Context, confirm func() bool) (bool, error) {
	if len(v.Items()) == 0 {
		return false, nil
	}
	if confirm != nil && !confirm() {
		return false, nil
	}
	if err := v.roundTrip(func() (domain.List, error) { return v.src.ClearAll(ctx) }); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteCompleted deletes every item completed in the cache, one request at a
// time. It stops at the first failure and returns a *PartialFailureError; the
// cache then holds the last list the server returned.
func (v *View) DeleteCompleted(ctx context.Context) ([]int64, error) {
	var ids []int64
	for _, it := range v.Items() {
		if it.Completed {
			ids = append(ids, it.ID)
		}
	}
	deleted := make([]int64, 0, len(ids))
	for i, id := range ids {
		if err := v.Delete(ctx, id); err != nil {
			return deleted, &PartialFailureError{
				Deleted: deleted,
				Failed:  id,
				Skipped: append([]int64(nil), ids[i+1:]...),
				Err:     err,
			}
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

func (v *View) roundTrip(call func() (domain.List, error)) error {
	v.rt.Lock()
	defer v.rt.Unlock()
	list, err := call()

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.status = StatusFailed
		v.err = err
		return err
	}
	v.items = list.Clone()
	v.err = nil
	if len(v.items) == 0 {
		v.status = StatusEmpty
	} else {
		v.status = StatusReady
	}
	return nil
}

// Items returns the cache in server order.
func (v *View) Items() domain.List {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.items.Clone()
}

// Sorted returns the cache in the current order.
func (v *View) Sorted() domain.List {
	v.mu.RLock()
	items, order := v.items, v.order
	v.mu.RUnlock()
	return Sort(items, order, v.lang)
}

// Rows returns the sorted cache with a time label per item.
func (v *View) Rows() []Row {
	now := v.now()
	sorted := v.Sorted()
	rows := make([]Row, len(sorted))
	for i, it := range sorted {
		rows[i] = Row{Item: it, Label: TimeLabel(it.AddedAt, now)}
	}
	return rows
}

// Status reports the presentation state.
func (v *View) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Err returns the error from the last failed round-trip, or nil.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Order returns the current sort order.
func (v *View) Order() Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.order
}

// SortBy applies Order.Select and returns the new order.
func (v *View) SortBy(dim Dimension) Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.order = v.order.Select(dim)
	return v.order
}

// Summary describes the cache, e.g. "2 of 5 items".
func (v *View) Summary() string {
	return Summary(v.Items())
}

// Find looks an item up in the cache.
func (v *View) Find(id int64) (domain.Item, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.items.Find(id)
}
