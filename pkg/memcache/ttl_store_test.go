package mem

import (
	"testing"
	"time"
)

func TestStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	s.Set("a", []byte("1"), time.Minute)
	s.Set("b", []byte("2"), time.Hour)

	if v, ok := s.Get("a"); !ok || string(v) != "1" {
		t.Fatalf("Get(a)=%q,%v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := s.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if _, ok := s.Get("b"); !ok {
		t.Fatalf("b should still be live")
	}
}

func TestStoreSweepAndDelete(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	s.Set("a", []byte("1"), time.Second)
	s.Set("b", []byte("2"), time.Second)
	s.Set("c", []byte("3"), time.Hour)
	now = now.Add(time.Minute)

	if n := s.Sweep(); n != 2 {
		t.Fatalf("swept %d", n)
	}
	s.Delete("c", "missing")
	if _, ok := s.Get("c"); ok {
		t.Fatalf("c should be deleted")
	}
}

func TestStoreCopiesValues(t *testing.T) {
	s := NewStore()
	buf := []byte("abc")
	s.Set("k", buf, time.Minute)
	buf[0] = 'x'

	v, _ := s.Get("k")
	if string(v) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", v)
	}
	v[1] = 'y'
	again, _ := s.Get("k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased store: %q", again)
	}
}
