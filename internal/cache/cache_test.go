package cache

import (
	"testing"
	"time"

	"github.com/itbasis/go-clock"
)

func TestTTL_Expiry(t *testing.T) {
	mock := clock.NewMock()
	c := New[string](mock)
	c.Set("k", "v", time.Minute)

	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %q, %v; want v, true", v, ok)
	}

	mock.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired early")
	}

	mock.Add(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should expire at its ttl")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want expired entry evicted", c.Len())
	}
}

func TestTTL_Overwrite(t *testing.T) {
	mock := clock.NewMock()
	c := New[int](mock)
	c.Set("k", 1, time.Second)
	c.Set("k", 2, time.Hour)
	mock.Add(time.Minute)
	if v, ok := c.Get("k"); !ok || v != 2 {
		t.Errorf("Get = %d, %v; want 2, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key found")
	}
}
