// Package core implements the list service: every operation runs in one
// store transaction and returns the full committed list.
package core

import (
	"context"
	"time"

	"sharedlist/internal/infra/persistence/memory"
	"sharedlist/pkg/domain"
)

// Operation names reported to loggers, metrics, tracers and the audit trail.
const (
	OpRead     = "read"
	OpAdd      = "add_item"
	OpToggle   = "toggle_item"
	OpDelete   = "delete_item"
	OpClearAll = "clear_all"
)

// Service exposes the shared list operations over a persistent store.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *domain.RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Read returns the committed list. An empty store yields an empty, non-nil list.
func (s *Service) Read(ctx context.Context) (domain.List, error) {
	var list domain.List
	err := s.observe(ctx, OpRead, func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.TransactionView) error {
			list = view.ListItems()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Add appends a new item attributed to addedBy.
func (s *Service) Add(ctx context.Context, text, addedBy string) (domain.List, error) {
	var created domain.Item
	list, err := s.mutate(ctx, OpAdd, domain.ActionCreate, func(tx domain.Transaction) error {
		var err error
		created, err = tx.AddItem(text, addedBy)
		return err
	}, func() (int64, string) { return created.ID, created.AddedBy })
	return list, err
}

// Toggle flips the completed flag of id. An unknown id leaves the list unchanged.
func (s *Service) Toggle(ctx context.Context, id int64) (domain.List, error) {
	return s.mutate(ctx, OpToggle, domain.ActionUpdate, func(tx domain.Transaction) error {
		if _, ok := tx.ToggleItem(id); !ok {
			s.logger.Debug("toggle of unknown item", "id", id)
		}
		return nil
	}, func() (int64, string) { return id, "" })
}

// Delete removes id. An unknown id leaves the list unchanged.
func (s *Service) Delete(ctx context.Context, id int64) (domain.List, error) {
	return s.mutate(ctx, OpDelete, domain.ActionDelete, func(tx domain.Transaction) error {
		if !tx.DeleteItem(id) {
			s.logger.Debug("delete of unknown item", "id", id)
		}
		return nil
	}, func() (int64, string) { return id, "" })
}

// ClearAll empties the list. Item ids are never reused afterwards.
func (s *Service) ClearAll(ctx context.Context) (domain.List, error) {
	var removed int
	list, err := s.mutate(ctx, OpClearAll, domain.ActionDelete, func(tx domain.Transaction) error {
		removed = tx.ClearItems()
		return nil
	}, func() (int64, string) { return 0, "" })
	if err == nil {
		s.logger.Info("list cleared", "removed", removed)
	}
	return list, err
}

// mutate runs fn in a store transaction and returns the list as committed.
// subject is read after a successful transaction to fill the audit entry.
func (s *Service) mutate(ctx context.Context, op string, action domain.Action, fn func(domain.Transaction) error, subject func() (int64, string)) (domain.List, error) {
	var list domain.List
	start := s.clock.Now()
	err := s.observe(ctx, op, func(ctx context.Context) error {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if err := fn(tx); err != nil {
				return err
			}
			list = tx.Snapshot().ListItems()
			return nil
		})
		for _, v := range res.Violations {
			if v.Severity != domain.SeverityBlock {
				s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "message", v.Message, "id", v.ItemID)
			}
		}
		return err
	})
	entry := AuditEntry{
		Operation: op,
		Action:    action,
		Status:    AuditStatusSuccess,
		Duration:  s.clock.Now().Sub(start),
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	} else {
		entry.ItemID, entry.Actor = subject()
	}
	s.audit.Record(ctx, entry)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// observe wraps an operation with tracing, metrics and error logging.
func (s *Service) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	switch {
	case err == nil:
		s.logger.Debug("operation completed", "operation", op, "duration", duration)
	case domain.IsValidation(err):
		s.logger.Info("operation rejected", "operation", op, "error", err)
	default:
		s.logger.Error("operation failed", "operation", op, "error", err)
	}
	return err
}
