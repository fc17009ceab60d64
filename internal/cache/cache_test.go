package cache

import (
	"reflect"
	"testing"
	"time"
)

func TestGetBeforeExpiry(t *testing.T) {
	now := time.Now()
	c := NewWithClock(func() time.Time { return now })

	values := []string{"apps", "kv", "transit"}
	returned := c.Set("vault:mounts", values, 30*time.Minute)

	if !reflect.DeepEqual(returned, values) {
		t.Errorf("Set did not return its input: got %v", returned)
	}

	got, ok := c.Get("vault:mounts")
	if !ok {
		t.Fatal("expected cache hit before expiry")
	}
	if !reflect.DeepEqual(got, values) {
		t.Errorf("Get = %v, want %v", got, values)
	}
}

func TestGetAfterExpiry(t *testing.T) {
	now := time.Now()
	c := NewWithClock(func() time.Time { return now })

	c.Set("namespaces", []string{"default", "kube-system"}, 10*time.Minute)

	now = now.Add(10*time.Minute + time.Second)

	if _, ok := c.Get("namespaces"); ok {
		t.Error("expected cache miss after expiry")
	}
	// The expired entry is dropped, forcing a re-fetch and re-Set.
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, Len = %d", c.Len())
	}
}

func TestGetUnknownKey(t *testing.T) {
	c := New()
	if _, ok := c.Get("never-set"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestSetOverwrites(t *testing.T) {
	now := time.Now()
	c := NewWithClock(func() time.Time { return now })

	c.Set("repos", []string{"old"}, time.Minute)
	c.Set("repos", []string{"new-a", "new-b"}, time.Minute)

	got, ok := c.Get("repos")
	if !ok {
		t.Fatal("expected hit")
	}
	if !reflect.DeepEqual(got, []string{"new-a", "new-b"}) {
		t.Errorf("Get = %v, want overwritten values", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestKeysAreIndependent(t *testing.T) {
	now := time.Now()
	c := NewWithClock(func() time.Time { return now })

	c.Set("short", []string{"a"}, time.Minute)
	c.Set("long", []string{"b"}, time.Hour)

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("short"); ok {
		t.Error("expected short-TTL entry to expire")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("expected long-TTL entry to survive")
	}
}
