// Package memory provides the transactional in-memory list store. Durable
// backends embed it and supply a commit hook that writes each candidate
// snapshot before it becomes visible.
package memory

import (
	"context"
	"sync"
	"time"

	"sharedlist/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Item aliases domain.Item for persistence operations.
	Item = domain.Item
	// List aliases domain.List.
	List = domain.List
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	items  List
	nextID int64
}

func (s memoryState) clone() memoryState {
	return memoryState{items: s.items.Clone(), nextID: s.nextID}
}

// Snapshot captures a point-in-time copy of the store state. NextID is the
// id the next created item will receive.
type Snapshot struct {
	Items  List  `json:"items"`
	NextID int64 `json:"next_id"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{Items: state.items.Clone(), NextID: state.nextID}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	return memoryState{items: s.Items.Clone(), nextID: s.NextID}
}

// MigrateSnapshot normalizes snapshots written by older versions or by hand:
// nil lists become empty and the id counter is raised past every stored id.
func MigrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Items == nil {
		snapshot.Items = List{}
	}
	if floor := snapshot.Items.MaxID() + 1; snapshot.NextID < floor {
		snapshot.NextID = floor
	}
	return snapshot
}

// CommitFunc durably records a candidate snapshot. It runs while the writer
// lock is held; a non-nil error aborts the transaction.
type CommitFunc func(ctx context.Context, snapshot Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithCommitHook installs the durable write performed before each commit.
func WithCommitHook(fn CommitFunc) Option {
	return func(s *Store) { s.commit = fn }
}

// WithNowFunc overrides the clock used to stamp AddedAt.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// WithSnapshot seeds the store with previously persisted state.
func WithSnapshot(snapshot Snapshot) Option {
	return func(s *Store) { s.state = memoryStateFromSnapshot(MigrateSnapshot(snapshot)) }
}

// Store provides an in-memory transactional store for the shared list.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	commit CommitFunc
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  memoryStateFromSnapshot(MigrateSnapshot(Snapshot{})),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(MigrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// ListItems returns the committed list.
func (s *Store) ListItems() List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.items.Clone()
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy replaces the committed state only after rules pass and the
// commit hook succeeds; a hook failure is returned as a domain.StorageError.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commit != nil {
		if err := s.commit(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return Result{}, domain.StorageError{Op: "commit", Err: err}
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the committed state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}

// transactionView exposes a read-only state to rules and readers.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListItems() List {
	return v.state.items.Clone()
}

func (v transactionView) FindItem(id int64) (Item, bool) {
	return v.state.items.Find(id)
}

// transaction represents a mutation set applied to a private copy of the state.
type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindItem exposes item lookup within the transaction scope.
func (tx *transaction) FindItem(id int64) (Item, bool) {
	return tx.state.items.Find(id)
}

// AddItem appends a new item with the next id from the transactional counter.
func (tx *transaction) AddItem(text, addedBy string) (Item, error) {
	if err := domain.ValidateText(text); err != nil {
		return Item{}, err
	}
	item := Item{
		ID:        tx.state.nextID,
		Text:      domain.Sanitize(text),
		Completed: false,
		AddedBy:   domain.NormalizeAuthor(addedBy),
		AddedAt:   tx.now.Unix(),
	}
	tx.state.nextID++
	tx.state.items = append(tx.state.items, item)
	after := item
	tx.recordChange(Change{Action: domain.ActionCreate, After: &after})
	return item, nil
}

// ToggleItem flips the completed flag of an existing item.
func (tx *transaction) ToggleItem(id int64) (Item, bool) {
	i := tx.state.items.Index(id)
	if i < 0 {
		return Item{}, false
	}
	before := tx.state.items[i]
	tx.state.items[i].Completed = !before.Completed
	after := tx.state.items[i]
	tx.recordChange(Change{Action: domain.ActionUpdate, Before: &before, After: &after})
	return after, true
}

// DeleteItem removes an item if present.
func (tx *transaction) DeleteItem(id int64) bool {
	i := tx.state.items.Index(id)
	if i < 0 {
		return false
	}
	before := tx.state.items[i]
	tx.state.items = append(tx.state.items[:i], tx.state.items[i+1:]...)
	tx.recordChange(Change{Action: domain.ActionDelete, Before: &before})
	return true
}

// ClearItems empties the list. The id counter is left untouched.
func (tx *transaction) ClearItems() int {
	n := len(tx.state.items)
	for i := range tx.state.items {
		before := tx.state.items[i]
		tx.recordChange(Change{Action: domain.ActionDelete, Before: &before})
	}
	tx.state.items = List{}
	return n
}
