package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/petasbytes/runloop/internal/telemetry"
)

func TestRunID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithRunID(context.Background(), "run-123")
	got, ok := telemetry.RunIDFromContext(ctx)
	if !ok || got != "run-123" {
		t.Fatalf("want run-123,true; got %q,%v", got, ok)
	}
}

func TestRunID_EmptyIDRejectedOnRead(t *testing.T) {
	ctx := telemetry.WithRunID(context.Background(), "")
	got, ok := telemetry.RunIDFromContext(ctx)
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestRunID_MissingValue(t *testing.T) {
	got, ok := telemetry.RunIDFromContext(context.Background())
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestRunID_LastWriteWins(t *testing.T) {
	ctx1 := telemetry.WithRunID(context.Background(), "run-1")
	ctx2 := telemetry.WithRunID(ctx1, "run-2")

	got, ok := telemetry.RunIDFromContext(ctx2)
	if !ok || got != "run-2" {
		t.Fatalf("want run-2,true; got %q,%v", got, ok)
	}
}

func TestRunID_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	child := telemetry.WithRunID(parent, "run-1")
	cancel()

	select {
	case <-child.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not observe parent cancellation")
	}
}

func TestRunID_UnrelatedValuesUnaffected(t *testing.T) {
	type otherKey struct{}
	parent := context.WithValue(context.Background(), otherKey{}, 123)

	child := telemetry.WithRunID(parent, "run-1")

	if v := child.Value(otherKey{}); v != 123 {
		t.Fatalf("want unrelated value 123; got %#v", v)
	}
	got, ok := telemetry.RunIDFromContext(child)
	if !ok || got != "run-1" {
		t.Fatalf("want run-1,true; got %q,%v", got, ok)
	}
}
