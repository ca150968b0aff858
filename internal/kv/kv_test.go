package kv

import (
	"path/filepath"
	"testing"

	"github.com/studiowebux/clicker/internal/migrations"
)

func openTestStore(t *testing.T, driver string) *SQLiteStore {
	t.Helper()

	store, err := Open(driver, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store with %s: %v", driver, err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			store := openTestStore(t, driver)

			if _, ok, err := store.Get("missing"); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := store.Set("clicker_server_url", "ws://a:8765"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := store.Set("clicker_server_url", "ws://b:8765"); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}

			value, ok, err := store.Get("clicker_server_url")
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if value != "ws://b:8765" {
				t.Errorf("expected overwritten value, got %q", value)
			}

			keys, err := store.Keys()
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 1 {
				t.Errorf("expected 1 key, got %v", keys)
			}

			if err := store.Delete("clicker_server_url"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, ok, _ := store.Get("clicker_server_url"); ok {
				t.Error("expected key to be deleted")
			}
		})
	}
}

func TestOpen_RunsMigrations(t *testing.T) {
	store := openTestStore(t, DriverCgo)

	version, err := migrations.GetCurrentVersion(store.DB())
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != len(migrations.AllMigrations) {
		t.Errorf("expected version %d, got %d", len(migrations.AllMigrations), version)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(DriverCgo, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set("clicker_seen_welcome", "true"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(DriverCgo, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	if v, ok, _ := second.Get("clicker_seen_welcome"); !ok || v != "true" {
		t.Errorf("expected persisted value, got %q ok=%v", v, ok)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	var _ Store = store

	store.Set("b", "2")
	store.Set("a", "1")

	if v, ok, _ := store.Get("a"); !ok || v != "1" {
		t.Errorf("expected a=1, got %q ok=%v", v, ok)
	}
	keys := store.Keys()
	if len(keys) != 2 || keys[0] != "a" {
		t.Errorf("expected sorted keys, got %v", keys)
	}
	store.Delete("a")
	if _, ok, _ := store.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
}
