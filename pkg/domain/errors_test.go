package domain

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	wrappedValidation := fmt.Errorf("add: %w", ValidationError{Field: "text", Reason: "must not be empty"})
	if !IsValidation(wrappedValidation) || IsStorage(wrappedValidation) {
		t.Fatalf("validation classification wrong")
	}
	storage := fmt.Errorf("commit: %w", StorageError{Op: "write", Err: io.ErrShortWrite})
	if !IsStorage(storage) || IsValidation(storage) {
		t.Fatalf("storage classification wrong")
	}
	if !errors.Is(storage, io.ErrShortWrite) {
		t.Fatalf("storage error should unwrap to its cause")
	}
	blocked := RuleViolationError{Result: Result{Violations: []Violation{{Rule: "max_items", Severity: SeverityBlock, Message: "full"}}}}
	if !IsValidation(blocked) {
		t.Fatalf("blocking rule violation should classify as validation")
	}
	if !strings.Contains(blocked.Error(), "max_items: full") {
		t.Fatalf("unexpected message %q", blocked.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (NotFoundError{ID: 7}).Error(); got != "item 7 not found" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (ValidationError{Reason: "malformed body"}).Error(); got != "validation failed: malformed body" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (RuleViolationError{}).Error(); got != "transaction blocked by rules" {
		t.Fatalf("unexpected message %q", got)
	}
}
