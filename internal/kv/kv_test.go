package kv

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestMemory_BasicOperations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Error("expected missing key")
	}

	if err := m.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.Get(ctx, "a")
	if err != nil || !ok || v != "1" {
		t.Fatalf("get = (%q, %v, %v), want (1, true, nil)", v, ok, err)
	}

	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("key survived delete")
	}
}

func TestMemory_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	for _, k := range []string{"app:a", "app:b", "other:c"} {
		if err := m.Set(ctx, k, "v"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := m.Keys(ctx, "app:")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "app:a" || keys[1] != "app:b" {
		t.Errorf("keys = %v, want [app:a app:b]", keys)
	}
}

func TestBus_PublishAndCancel(t *testing.T) {
	bus := NewBus()

	var got []string
	cancel := bus.Subscribe(func(e Event) { got = append(got, e.Key) })

	bus.Publish(Event{Key: "one"})
	bus.Publish(Event{Key: "two"})

	cancel()
	bus.Publish(Event{Key: "three"})

	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("got %v, want [one two]", got)
	}
}

func TestMemory_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	m := NewMemory(bus)

	var events []string
	bus.Subscribe(func(e Event) { events = append(events, e.Key) })

	m.Set(ctx, "k", "v")
	m.Delete(ctx, "k")
	// Deleting a missing key is a no-op and must not publish.
	m.Delete(ctx, "k")

	if len(events) != 2 {
		t.Errorf("events = %v, want exactly 2", events)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	f, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.Set(ctx, "app:key", "value"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh handle must see persisted state.
	f2, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := f2.Get(ctx, "app:key")
	if err != nil || !ok || v != "value" {
		t.Fatalf("get after reopen = (%q, %v, %v)", v, ok, err)
	}
}

func TestFile_DeletePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	f, _ := OpenFile(path, nil)
	f.Set(ctx, "a", "1")
	f.Set(ctx, "b", "2")
	if err := f.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	f2, _ := OpenFile(path, nil)
	if _, ok, _ := f2.Get(ctx, "a"); ok {
		t.Error("deleted key survived reopen")
	}
	if _, ok, _ := f2.Get(ctx, "b"); !ok {
		t.Error("unrelated key lost")
	}
}

func TestFile_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "data.json")

	f, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("open missing: %v", err)
	}
	keys, err := f.Keys(context.Background(), "")
	if err != nil || len(keys) != 0 {
		t.Errorf("keys = %v, %v", keys, err)
	}
}

func TestFile_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFile(path, nil); err == nil {
		t.Error("expected decode error for corrupt file")
	}
}
