package domain

import "context"

// Transaction exposes the list mutations a persistence implementation must
// support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	// AddItem validates and sanitizes its arguments, assigns a fresh id and
	// timestamp, and appends the item.
	AddItem(text, addedBy string) (Item, error)
	// ToggleItem flips the completed flag. The bool is false when id is unknown.
	ToggleItem(id int64) (Item, bool)
	// DeleteItem removes the item, reporting whether it existed.
	DeleteItem(id int64) bool
	// ClearItems empties the list and returns how many items were removed.
	ClearItems() int
	FindItem(id int64) (Item, bool)
}

// TransactionView provides read-only access to a consistent list state.
type TransactionView interface {
	ListItems() List
	FindItem(id int64) (Item, bool)
}

// PersistentStore is a minimal abstraction over durable backends. Every
// RunInTransaction call is serialized with every other; View observes only
// committed state.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ListItems() List
}
