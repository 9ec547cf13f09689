package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSetManyGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.SetMany(ctx, map[string]string{
		"auth_token":  "abc",
		"tenant_slug": "crown",
		"user":        `{"id":1}`,
	})
	if err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}

	for key, want := range map[string]string{"auth_token": "abc", "tenant_slug": "crown", "user": `{"id":1}`} {
		got, ok, err := s.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Get(%s) = (%q, %v, %v), want present", key, got, ok, err)
		}
		if got != want {
			t.Errorf("Get(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestSetMany_Overwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetMany(ctx, map[string]string{"auth_token": "old"}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}
	if err := s.SetMany(ctx, map[string]string{"auth_token": "new"}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}

	got, ok, err := s.Get(ctx, "auth_token")
	if err != nil || !ok || got != "new" {
		t.Fatalf("Get = (%q, %v, %v), want new", got, ok, err)
	}
}

func TestGet_Absent(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for absent key")
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetMany(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatal("key a still present after Delete")
	}

	// Deleting an absent key is fine.
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete absent key failed: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Fatal("key b still present after Clear")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetMany(ctx, map[string]string{"auth_token": "abc"}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = s2.Close() }()

	got, ok, err := s2.Get(ctx, "auth_token")
	if err != nil || !ok || got != "abc" {
		t.Fatalf("Get after reopen = (%q, %v, %v), want abc", got, ok, err)
	}
}
