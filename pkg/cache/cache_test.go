package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("reports:1:summary", "s1", 1*time.Second)
	c.Set("reports:1:chart:status", "c1", 1*time.Second)
	c.Set("reports:2:summary", "s2", 1*time.Second)
	c.Invalidate("reports:1:")
	_, ok1 := c.Get("reports:1:summary")
	_, ok2 := c.Get("reports:1:chart:status")
	_, ok3 := c.Get("reports:2:summary")
	if ok1 || ok2 {
		t.Fatalf("expected user 1 report keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected user 2 summary to still exist")
	}
}
