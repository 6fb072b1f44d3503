package chain

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSplitSpans(t *testing.T) {
	got, err := SplitSpans(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Span{
		{From: 0, To: 2},
		{From: 2, To: 4},
		{From: 4, To: 5},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("spans mismatch: %+v != %+v", got, want)
	}
}

func TestSplitSpansSingle(t *testing.T) {
	got, err := SplitSpans(3, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Span{{From: 0, To: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("spans mismatch: %+v != %+v", got, want)
	}
}

func TestSplitSpansEmptyAndInvalid(t *testing.T) {
	got, err := SplitSpans(0, 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no spans, got %+v (%v)", got, err)
	}
	if _, err := SplitSpans(1, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
	if _, err := SplitSpans(-1, 1); err == nil {
		t.Fatalf("expected error for negative count")
	}
}

func TestWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("down")
	err := WithRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, 5, time.Millisecond, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
