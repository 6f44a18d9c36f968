package core

import (
	"context"
	"fmt"
	"strings"

	"sharedlist/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// maxItems of zero or less disables the list size cap.
func NewDefaultRulesEngine(maxItems int) *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewUniqueIDsRule())
	engine.Register(NewItemShapeRule())
	engine.Register(NewDuplicateTextRule())
	if maxItems > 0 {
		engine.Register(NewMaxItemsRule(maxItems))
	}
	return engine
}

// NewUniqueIDsRule blocks any commit that would leave two items sharing an id.
func NewUniqueIDsRule() domain.Rule { return uniqueIDsRule{} }

type uniqueIDsRule struct{}

func (uniqueIDsRule) Name() string { return "unique_ids" }

func (uniqueIDsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	seen := make(map[int64]struct{})
	res := domain.Result{}
	for _, item := range view.ListItems() {
		if _, dup := seen[item.ID]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "unique_ids",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("id %d appears more than once", item.ID),
				ItemID:   item.ID,
			})
		}
		seen[item.ID] = struct{}{}
	}
	return res, nil
}

// NewItemShapeRule blocks created items missing a required field.
func NewItemShapeRule() domain.Rule { return itemShapeRule{} }

type itemShapeRule struct{}

func (itemShapeRule) Name() string { return "item_shape" }

func (itemShapeRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionCreate || change.After == nil {
			continue
		}
		item := *change.After
		var problems []string
		if item.ID <= 0 {
			problems = append(problems, "id must be positive")
		}
		if strings.TrimSpace(item.Text) == "" {
			problems = append(problems, "text is empty")
		}
		if item.AddedBy == "" {
			problems = append(problems, "addedBy is empty")
		}
		if item.AddedAt <= 0 {
			problems = append(problems, "addedAt is unset")
		}
		if len(problems) > 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "item_shape",
				Severity: domain.SeverityBlock,
				Message:  strings.Join(problems, ", "),
				ItemID:   item.ID,
			})
		}
	}
	return res, nil
}

// NewDuplicateTextRule warns when an added item repeats the text of another
// item that is still open. The add is not blocked.
func NewDuplicateTextRule() domain.Rule { return duplicateTextRule{} }

type duplicateTextRule struct{}

func (duplicateTextRule) Name() string { return "duplicate_text" }

func (duplicateTextRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionCreate || change.After == nil {
			continue
		}
		added := *change.After
		for _, item := range view.ListItems() {
			if item.ID == added.ID || item.Completed {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(item.Text), strings.TrimSpace(added.Text)) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "duplicate_text",
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("%q is already on the list as item %d", added.Text, item.ID),
					ItemID:   added.ID,
				})
				break
			}
		}
	}
	return res, nil
}

// NewMaxItemsRule blocks additions that would grow the list beyond limit.
func NewMaxItemsRule(limit int) domain.Rule { return maxItemsRule{limit: limit} }

type maxItemsRule struct {
	limit int
}

func (maxItemsRule) Name() string { return "max_items" }

func (r maxItemsRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	created := false
	for _, change := range changes {
		if change.Action == domain.ActionCreate {
			created = true
			break
		}
	}
	res := domain.Result{}
	if !created {
		return res, nil
	}
	if n := len(view.ListItems()); n > r.limit {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "max_items",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("list holds %d items, limit is %d", n, r.limit),
		})
	}
	return res, nil
}
