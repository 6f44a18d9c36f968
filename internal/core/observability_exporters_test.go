package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "sharedlist_service_metrics_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}
	ctx := context.Background()
	rec.Observe(ctx, OpAdd, true, 2*time.Millisecond)
	rec.Observe(ctx, OpAdd, false, 3*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS[OpAdd] != 5 {
		t.Fatalf("expected 5ms total, got %v", snap.DurationsMS[OpAdd])
	}
	if snap.Results[OpAdd]["success"] != 1 || snap.Results[OpAdd]["error"] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Results)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation should be ignored: %+v", snap.Results)
	}
	if snap.LastObservedAt.IsZero() {
		t.Fatalf("expected last observed timestamp")
	}

	v := expvar.Get(rec.Name())
	if v == nil {
		t.Fatalf("recorder not published")
	}
	var decoded ExpvarMetricsSnapshot
	if err := json.Unmarshal([]byte(v.String()), &decoded); err != nil {
		t.Fatalf("decode published value: %v", err)
	}
	if decoded.Results[OpAdd]["success"] != 1 {
		t.Fatalf("published value out of date: %+v", decoded)
	}
}

func TestMultiMetricsRecorderFansOut(t *testing.T) {
	a, b := &captureMetrics{}, &captureMetrics{}
	multi := MultiMetricsRecorder{a, nil, b}
	multi.Observe(context.Background(), OpToggle, true, time.Millisecond)
	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Fatalf("expected each recorder to see the call: %v %v", a.calls, b.calls)
	}
}

func TestJSONTracerWritesAndRetains(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf, 2)
	ctx := context.Background()
	for i, err := range []error{nil, errors.New("boom"), nil} {
		_, span := tracer.Start(ctx, []string{OpAdd, OpToggle, OpDelete}[i])
		span.End(err)
		span.End(errors.New("ignored"))
	}
	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected retention of 2, got %d", len(entries))
	}
	if entries[0].Operation != OpToggle || entries[0].Status != "error" || entries[0].Error != "boom" {
		t.Fatalf("unexpected oldest retained entry %+v", entries[0])
	}
	if entries[1].Operation != OpDelete || entries[1].Status != "success" {
		t.Fatalf("unexpected newest entry %+v", entries[1])
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one line per span, got %d: %q", len(lines), buf.String())
	}
	var first JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if first.Operation != OpAdd || first.EndedAt.Before(first.StartedAt) {
		t.Fatalf("unexpected first line %+v", first)
	}
}
