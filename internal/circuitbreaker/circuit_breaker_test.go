package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New(Settings{
		Name:    "test",
		Timeout: 50 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	})

	failing := errors.New("boom")
	if err := b.Execute(func() error { return failing }); err != failing {
		t.Fatalf("first Execute error = %v; want %v", err, failing)
	}
	if b.State() != StateClosed {
		t.Fatalf("state after 1 failure = %v; want closed", b.State())
	}

	if err := b.Execute(func() error { return failing }); err != failing {
		t.Fatalf("second Execute error = %v; want %v", err, failing)
	}
	if b.State() != StateOpen {
		t.Fatalf("state after 2 failures = %v; want open", b.State())
	}

	if err := b.Execute(func() error { return nil }); err == nil {
		t.Fatal("expected Execute to refuse a call while open")
	}
}

func TestBreaker_HalfOpenClosesOnSuccess(t *testing.T) {
	b := New(Settings{
		Name:    "test",
		Timeout: 10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool {
			return c.ConsecutiveFailures >= 1
		},
	})

	failing := errors.New("boom")
	_ = b.Execute(func() error { return failing })
	if b.State() != StateOpen {
		t.Fatalf("state = %v; want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("state after timeout = %v; want half_open", b.State())
	}

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute in half_open with success = %v; want nil", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state after half_open success = %v; want closed", b.State())
	}
}

func TestBreaker_PanicRecordsFailureAndRePanics(t *testing.T) {
	b := New(Settings{Name: "test"})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to propagate")
		}
		if b.Counts().ConsecutiveFailures != 1 {
			t.Fatalf("ConsecutiveFailures = %d; want 1", b.Counts().ConsecutiveFailures)
		}
	}()

	_ = b.Execute(func() error { panic("boom") })
}
