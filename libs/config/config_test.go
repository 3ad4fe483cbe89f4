package config

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("BOOKING_TEST_INT", "")
	n, err := Int("BOOKING_TEST_INT", 7)
	if err != nil || n != 7 {
		t.Fatalf("expected fallback 7, got %d (%v)", n, err)
	}

	t.Setenv("BOOKING_TEST_INT", "42")
	n, err = Int("BOOKING_TEST_INT", 7)
	if err != nil || n != 42 {
		t.Fatalf("expected 42, got %d (%v)", n, err)
	}

	t.Setenv("BOOKING_TEST_INT", "forty")
	if _, err := Int("BOOKING_TEST_INT", 7); err == nil {
		t.Fatal("expected error for malformed int")
	}
}

func TestDurationAndList(t *testing.T) {
	t.Setenv("BOOKING_TEST_DUR", "250ms")
	d, err := Duration("BOOKING_TEST_DUR", time.Second)
	if err != nil || d != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s (%v)", d, err)
	}

	t.Setenv("BOOKING_TEST_LIST", " a, ,b ,")
	got := List("BOOKING_TEST_LIST")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("BOOKING_TEST_PORT", "70000")
	if _, err := Port("BOOKING_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}
